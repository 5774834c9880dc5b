package scheduling

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

type AgentTaskService struct {
	store AgentTaskStore
	pub   Publisher
	log   *zap.Logger
}

func NewAgentTaskService(store AgentTaskStore, pub Publisher, log *zap.Logger) *AgentTaskService {
	return &AgentTaskService{store: store, pub: pub, log: log}
}

func (s *AgentTaskService) Create(ctx context.Context, taskType models.AgentTaskType, payload string) (*models.AgentTask, error) {
	if !taskType.Valid() {
		return nil, apperr.Invalid("task type is invalid: %q", taskType)
	}
	if strings.TrimSpace(payload) == "" {
		return nil, apperr.Invalid("payload must not be blank")
	}
	t := &models.AgentTask{TaskType: taskType, Status: models.TaskPending, Payload: payload}
	if err := s.store.CreateAgentTask(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info("agent task queued", zap.Int64("task_id", t.ID), zap.String("type", string(t.TaskType)))
	s.pub.Publish(models.TopicAgentTasks, models.EventAgentTaskCreated, t)
	return t, nil
}

// ListPending returns queued tasks, oldest first.
func (s *AgentTaskService) ListPending(ctx context.Context) ([]models.AgentTask, error) {
	return s.store.ListAgentTasksByStatus(ctx, models.TaskPending, 0)
}

// NextPending returns up to limit queued tasks for a worker.
func (s *AgentTaskService) NextPending(ctx context.Context, limit int) ([]models.AgentTask, error) {
	return s.store.ListAgentTasksByStatus(ctx, models.TaskPending, limit)
}

func (s *AgentTaskService) Get(ctx context.Context, id int64) (*models.AgentTask, error) {
	return s.store.GetAgentTask(ctx, id)
}

// Update moves a task to status and replaces its result. Backward moves are
// rejected; a concurrent update is reported as a conflict.
func (s *AgentTaskService) Update(ctx context.Context, id int64, status models.AgentTaskStatus, result *string) (*models.AgentTask, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("task status is required")
	}
	t, err := s.store.GetAgentTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, t, status, result)
}

// Claim moves a pending task to IN_PROGRESS. It fails with a conflict when
// another worker got there first.
func (s *AgentTaskService) Claim(ctx context.Context, t *models.AgentTask) (*models.AgentTask, error) {
	return s.transition(ctx, t, models.TaskInProgress, t.Result)
}

func (s *AgentTaskService) transition(ctx context.Context, t *models.AgentTask, status models.AgentTaskStatus, result *string) (*models.AgentTask, error) {
	if !t.Status.CanTransition(status) {
		return nil, apperr.Invalid("cannot move task %d from %s to %s", t.ID, t.Status, status)
	}
	next := *t
	next.Status = status
	next.Result = result
	if err := s.store.UpdateAgentTask(ctx, &next); err != nil {
		return nil, err
	}
	s.log.Info("agent task updated",
		zap.Int64("task_id", next.ID),
		zap.String("from", string(t.Status)),
		zap.String("to", string(next.Status)),
	)
	s.pub.Publish(models.TopicAgentTasks, models.EventAgentTaskUpdated, &next)
	return &next, nil
}
