package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
)

type registerRequest struct {
	Email        string            `json:"email" binding:"required"`
	Password     string            `json:"password" binding:"required"`
	FullName     string            `json:"fullName" binding:"required"`
	DepartmentID *int64            `json:"departmentId"`
	Roles        []models.RoleType `json:"roles" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

func (s *server) handleRegister(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.app.Accounts.Register(c.Request.Context(), scheduling.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		DepartmentID: req.DepartmentID,
		Roles:        req.Roles,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.app.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleListUsers(c *gin.Context) {
	users, err := s.app.Accounts.ListUsers(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *server) handleGetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := s.app.Accounts.GetUser(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *server) handleChangePassword(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := s.app.Accounts.ChangePassword(c.Request.Context(), id, req.NewPassword); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
