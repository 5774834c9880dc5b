package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const taskColumns = "id, version, task_type, status, payload, result, created_at, updated_at FROM agent_tasks"

func (s *SQLStore) CreateAgentTask(ctx context.Context, t *models.AgentTask) error {
	now := time.Now().Truncate(time.Second)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO agent_tasks (version, task_type, status, payload, result, created_at, updated_at)
		VALUES (0, ?, ?, ?, ?, ?, ?) RETURNING id`,
		string(t.TaskType), string(t.Status), t.Payload, nullString(t.Result),
		db.Timestamp(t.CreatedAt), db.Timestamp(t.UpdatedAt),
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("insert agent task: %w", err)
	}
	t.Version = 0
	return nil
}

func (s *SQLStore) GetAgentTask(ctx context.Context, id int64) (*models.AgentTask, error) {
	t, err := scanTask(s.q.QueryRowContext(ctx, "SELECT "+taskColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("agent task not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get agent task %d: %w", id, err)
	}
	return t, nil
}

// ListAgentTasksByStatus returns tasks in status, oldest first. A limit of
// zero returns all of them.
func (s *SQLStore) ListAgentTasksByStatus(ctx context.Context, status models.AgentTaskStatus, limit int) ([]models.AgentTask, error) {
	query := "SELECT " + taskColumns + " WHERE status = ? ORDER BY created_at, id"
	args := []any{string(status)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agent tasks: %w", err)
	}
	defer rows.Close()

	items := []models.AgentTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// UpdateAgentTask stores status and result when the version matches. A
// lost race is reported as a conflict.
func (s *SQLStore) UpdateAgentTask(ctx context.Context, t *models.AgentTask) error {
	t.UpdatedAt = time.Now().Truncate(time.Second)
	res, err := s.q.ExecContext(ctx,
		`UPDATE agent_tasks SET version = version + 1, status = ?, result = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(t.Status), nullString(t.Result), db.Timestamp(t.UpdatedAt), t.ID, t.Version,
	)
	if err != nil {
		return fmt.Errorf("update agent task %d: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.versionMiss(ctx, "agent_tasks", "agent task", t.ID)
	}
	t.Version++
	return nil
}

func scanTask(row scanner) (*models.AgentTask, error) {
	var t models.AgentTask
	var taskType, status string
	var result sql.NullString
	var created, updated db.ScanTime
	if err := row.Scan(&t.ID, &t.Version, &taskType, &status, &t.Payload, &result, &created, &updated); err != nil {
		return nil, err
	}
	t.TaskType = models.AgentTaskType(taskType)
	t.Status = models.AgentTaskStatus(status)
	t.Result = stringPtr(result)
	t.CreatedAt = created.Time
	t.UpdatedAt = updated.Time
	return &t, nil
}
