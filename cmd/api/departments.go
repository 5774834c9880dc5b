package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/middleware"
)

type departmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *server) handleListDepartments(c *gin.Context) {
	list, err := s.app.Departments.List(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleGetDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := s.app.Departments.Get(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *server) handleCreateDepartment(c *gin.Context) {
	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := s.app.Departments.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *server) handleUpdateDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req departmentRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := s.app.Departments.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *server) handleDeleteDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.app.Departments.Delete(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
