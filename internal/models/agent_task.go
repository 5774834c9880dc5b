package models

import (
	"fmt"
	"strings"
	"time"
)

type AgentTaskType string

const (
	TaskScheduleGeneration AgentTaskType = "SCHEDULE_GENERATION"
	TaskScheduleValidation AgentTaskType = "SCHEDULE_VALIDATION"
	TaskDataSync           AgentTaskType = "DATA_SYNC"
)

func (t AgentTaskType) Valid() bool {
	switch t {
	case TaskScheduleGeneration, TaskScheduleValidation, TaskDataSync:
		return true
	}
	return false
}

func ParseAgentTaskType(s string) (AgentTaskType, error) {
	t := AgentTaskType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown agent task type %q", s)
	}
	return t, nil
}

// AgentTaskStatus tracks a queued automation request.
//
// Lifecycle: PENDING -> IN_PROGRESS -> COMPLETED | FAILED
//
//	PENDING -> COMPLETED | FAILED
type AgentTaskStatus string

const (
	TaskPending    AgentTaskStatus = "PENDING"
	TaskInProgress AgentTaskStatus = "IN_PROGRESS"
	TaskCompleted  AgentTaskStatus = "COMPLETED"
	TaskFailed     AgentTaskStatus = "FAILED"
)

func (s AgentTaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

func ParseAgentTaskStatus(s string) (AgentTaskStatus, error) {
	st := AgentTaskStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown agent task status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a task may move from s to next. Rewriting
// the result without changing the status is always allowed.
func (s AgentTaskStatus) CanTransition(next AgentTaskStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case TaskPending:
		return next == TaskInProgress || next == TaskCompleted || next == TaskFailed
	case TaskInProgress:
		return next == TaskCompleted || next == TaskFailed
	}
	return false
}

type AgentTask struct {
	ID        int64           `json:"id"`
	Version   int64           `json:"version"`
	TaskType  AgentTaskType   `json:"taskType"`
	Status    AgentTaskStatus `json:"status"`
	Payload   string          `json:"payload"`
	Result    *string         `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
