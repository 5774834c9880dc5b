package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const shiftColumns = `s.id, s.version, s.start_time, s.end_time, s.required_role, s.status,
	s.department_id, d.name, s.assignee_user_id, u.full_name, s.notes
	FROM shifts s
	JOIN departments d ON d.id = s.department_id
	LEFT JOIN users u ON u.id = s.assignee_user_id`

func (s *SQLStore) CreateShift(ctx context.Context, sh *models.Shift) error {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO shifts (version, start_time, end_time, required_role, status, department_id, assignee_user_id, notes)
		VALUES (0, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		db.Timestamp(sh.StartTime.Time), db.Timestamp(sh.EndTime.Time), string(sh.RequiredRole),
		string(sh.Status), sh.DepartmentID, sh.AssigneeUserID, sh.Notes,
	).Scan(&sh.ID)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("department or assignee not found")
	}
	if err != nil {
		return fmt.Errorf("insert shift: %w", err)
	}
	sh.Version = 0
	return nil
}

func (s *SQLStore) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	sh, err := scanShift(s.q.QueryRowContext(ctx, "SELECT "+shiftColumns+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("shift not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get shift %d: %w", id, err)
	}
	return sh, nil
}

// ListShifts returns shifts matching f ordered by start time.
func (s *SQLStore) ListShifts(ctx context.Context, f models.ShiftFilter) ([]models.Shift, error) {
	var where []string
	var args []any
	if f.Status != nil {
		where = append(where, "s.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.DepartmentID != nil {
		where = append(where, "s.department_id = ?")
		args = append(args, *f.DepartmentID)
	}
	if f.From != nil {
		where = append(where, "s.start_time >= ?")
		args = append(args, db.Timestamp(*f.From))
	}
	if f.To != nil {
		where = append(where, "s.start_time <= ?")
		args = append(args, db.Timestamp(*f.To))
	}

	query := "SELECT " + shiftColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.start_time, s.id"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	items := []models.Shift{}
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *sh)
	}
	return items, rows.Err()
}

// UpdateShift writes sh if its version still matches the stored row and
// bumps the version.
func (s *SQLStore) UpdateShift(ctx context.Context, sh *models.Shift) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE shifts SET version = version + 1, start_time = ?, end_time = ?, required_role = ?,
		status = ?, department_id = ?, assignee_user_id = ?, notes = ?
		WHERE id = ? AND version = ?`,
		db.Timestamp(sh.StartTime.Time), db.Timestamp(sh.EndTime.Time), string(sh.RequiredRole),
		string(sh.Status), sh.DepartmentID, sh.AssigneeUserID, sh.Notes, sh.ID, sh.Version,
	)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("department or assignee not found")
	}
	if err != nil {
		return fmt.Errorf("update shift %d: %w", sh.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.versionMiss(ctx, "shifts", "shift", sh.ID)
	}
	sh.Version++
	return nil
}

func (s *SQLStore) DeleteShift(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM shifts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete shift %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("shift not found: %d", id)
	}
	return nil
}

func scanShift(row scanner) (*models.Shift, error) {
	var sh models.Shift
	var start, end db.ScanTime
	var role, status string
	var assignee sql.NullInt64
	var assigneeName sql.NullString
	if err := row.Scan(&sh.ID, &sh.Version, &start, &end, &role, &status,
		&sh.DepartmentID, &sh.DepartmentName, &assignee, &assigneeName, &sh.Notes); err != nil {
		return nil, err
	}
	sh.StartTime = models.NewDateTime(start.Time)
	sh.EndTime = models.NewDateTime(end.Time)
	sh.RequiredRole = models.RoleType(role)
	sh.Status = models.ShiftStatus(status)
	sh.AssigneeUserID = int64Ptr(assignee)
	sh.AssigneeName = stringPtr(assigneeName)
	return &sh, nil
}
