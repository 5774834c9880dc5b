package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/middleware"
	"github.com/hospital-shifts/scheduler/internal/models"
	"github.com/hospital-shifts/scheduler/internal/scheduling"
)

type agentTaskRequest struct {
	TaskType models.AgentTaskType `json:"taskType" binding:"required"`
	Payload  string               `json:"payload" binding:"required"`
}

type agentTaskUpdateRequest struct {
	Status models.AgentTaskStatus `json:"status" binding:"required"`
	Result *string                `json:"result"`
}

type chatRequest struct {
	Content string `json:"content"`
	UserID  *int64 `json:"userId"`
}

func (s *server) handleCreateAgentTask(c *gin.Context) {
	var req agentTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.app.Tasks.Create(c.Request.Context(), req.TaskType, req.Payload)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) handleListPendingTasks(c *gin.Context) {
	tasks, err := s.app.Tasks.ListPending(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *server) handleGetAgentTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := s.app.Tasks.Get(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) handleUpdateAgentTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req agentTaskUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := s.app.Tasks.Update(c.Request.Context(), id, req.Status, req.Result)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) handleRecentChat(c *gin.Context) {
	limit := scheduling.DefaultChatLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondError(c, apperr.Invalid("limit must be a number"))
			return
		}
		limit = n
	}
	msgs, err := s.app.Chat.Recent(c.Request.Context(), limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (s *server) handleCozeChat(c *gin.Context) {
	var req chatRequest
	if !bindJSON(c, &req) {
		return
	}
	userID := ""
	if req.UserID != nil {
		userID = strconv.FormatInt(*req.UserID, 10)
	} else if p := middleware.Principal(c); p != nil {
		userID = strconv.FormatInt(p.UserID, 10)
	}
	c.JSON(http.StatusOK, s.app.Chat.Chat(c.Request.Context(), req.Content, userID))
}

func (s *server) handleCozeHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Chat.Health())
}
