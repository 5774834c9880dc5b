package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
)

type createShiftRequest struct {
	StartTime    models.DateTime `json:"startTime"`
	EndTime      models.DateTime `json:"endTime"`
	RequiredRole models.RoleType `json:"requiredRole" binding:"required"`
	DepartmentID int64           `json:"departmentId" binding:"required"`
	Notes        string          `json:"notes"`
}

type assignShiftRequest struct {
	AssigneeUserID *int64             `json:"assigneeUserId"`
	Notes          string             `json:"notes"`
	Status         models.ShiftStatus `json:"status" binding:"required"`
}

type updateShiftRequest struct {
	StartTime      models.DateTime    `json:"startTime"`
	EndTime        models.DateTime    `json:"endTime"`
	RequiredRole   models.RoleType    `json:"requiredRole" binding:"required"`
	Status         models.ShiftStatus `json:"status" binding:"required"`
	DepartmentID   int64              `json:"departmentId" binding:"required"`
	AssigneeUserID *int64             `json:"assigneeUserId"`
	Notes          string             `json:"notes"`
}

func (s *server) handleListShifts(c *gin.Context) {
	list, err := s.app.Shifts.List(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleListOpenShifts(c *gin.Context) {
	list, err := s.app.Shifts.ListOpen(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleGetShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sh, err := s.app.Shifts.Get(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (s *server) handleListDepartmentShifts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	start, end, err := timeRange(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	list, err := s.app.Shifts.ListByDepartment(c.Request.Context(), id, start, end)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleShiftSummary(c *gin.Context) {
	start, end, err := timeRange(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	summary, err := s.app.Shifts.Summary(c.Request.Context(), start, end)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *server) handleCreateShift(c *gin.Context) {
	var req createShiftRequest
	if !bindJSON(c, &req) {
		return
	}
	sh, err := s.app.Shifts.Create(c.Request.Context(), scheduling.CreateShiftInput{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RequiredRole: req.RequiredRole,
		DepartmentID: req.DepartmentID,
		Notes:        req.Notes,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (s *server) handleAssignShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assignShiftRequest
	if !bindJSON(c, &req) {
		return
	}
	sh, err := s.app.Shifts.UpdateAssignment(c.Request.Context(), id, scheduling.AssignShiftInput{
		AssigneeUserID: req.AssigneeUserID,
		Notes:          req.Notes,
		Status:         req.Status,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (s *server) handleAdminUpdateShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateShiftRequest
	if !bindJSON(c, &req) {
		return
	}
	sh, err := s.app.Shifts.UpdateDetails(c.Request.Context(), id, scheduling.UpdateShiftInput{
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		RequiredRole:   req.RequiredRole,
		Status:         req.Status,
		DepartmentID:   req.DepartmentID,
		AssigneeUserID: req.AssigneeUserID,
		Notes:          req.Notes,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

func (s *server) handleDeleteShift(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.app.Shifts.Delete(c.Request.Context(), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// timeRange reads the optional start and end query parameters.
func timeRange(c *gin.Context) (start, end *time.Time, err error) {
	parse := func(key string) (*time.Time, error) {
		raw := c.Query(key)
		if raw == "" {
			return nil, nil
		}
		dt, err := models.ParseDateTime(raw)
		if err != nil {
			return nil, apperr.Invalid("%s: %v", key, err)
		}
		return &dt.Time, nil
	}
	if start, err = parse("start"); err != nil {
		return nil, nil, err
	}
	if end, err = parse("end"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
