package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
)

type calendarEntryRequest struct {
	Date         models.Date `json:"date"`
	DepartmentID *int64      `json:"departmentId"`
	Summary      string      `json:"summary" binding:"required"`
	Headcount    *int        `json:"headcount"`
}

func (s *server) handleListCalendar(c *gin.Context) {
	start, err := queryDate(c, "start")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	end, err := queryDate(c, "end")
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	entries, err := s.app.Calendar.ListByRange(c.Request.Context(), start, end)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *server) handleCreateCalendarEntry(c *gin.Context) {
	var req calendarEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := s.app.Calendar.CreateEntry(c.Request.Context(), scheduling.CalendarEntryInput{
		Date:         req.Date,
		DepartmentID: req.DepartmentID,
		Summary:      req.Summary,
		Headcount:    req.Headcount,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func queryDate(c *gin.Context, key string) (*models.Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.Invalid("%s: %v", key, err)
	}
	return &d, nil
}
