package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

func (s *SQLStore) CreateDepartment(ctx context.Context, d *models.Department) error {
	err := s.q.QueryRowContext(ctx,
		"INSERT INTO departments (name, description) VALUES (?, ?) RETURNING id",
		d.Name, d.Description,
	).Scan(&d.ID)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("department already exists: %s", d.Name)
	}
	if err != nil {
		return fmt.Errorf("insert department: %w", err)
	}
	return nil
}

func (s *SQLStore) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	var d models.Department
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, description FROM departments WHERE id = ?", id,
	).Scan(&d.ID, &d.Name, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("department not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get department %d: %w", id, err)
	}
	return &d, nil
}

func (s *SQLStore) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "departments", id)
}

func (s *SQLStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT id, name, description FROM departments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	items := []models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Description); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (s *SQLStore) UpdateDepartment(ctx context.Context, d *models.Department) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE departments SET name = ?, description = ? WHERE id = ?",
		d.Name, d.Description, d.ID,
	)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict("department already exists: %s", d.Name)
	}
	if err != nil {
		return fmt.Errorf("update department %d: %w", d.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("department not found: %d", d.ID)
	}
	return nil
}

func (s *SQLStore) DeleteDepartment(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", id)
	if db.IsForeignKeyViolation(err) {
		return apperr.Conflict("department %d still has shifts", id)
	}
	if err != nil {
		return fmt.Errorf("delete department %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("department not found: %d", id)
	}
	return nil
}
