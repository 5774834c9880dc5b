package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

func (s *SQLStore) CreateCalendarEntry(ctx context.Context, e *models.DutyCalendarEntry) error {
	err := s.q.QueryRowContext(ctx,
		"INSERT INTO duty_calendar_entries (entry_date, department_id, summary, headcount) VALUES (?, ?, ?, ?) RETURNING id",
		db.DateValue(e.Date.Time), e.DepartmentID, e.Summary, e.Headcount,
	).Scan(&e.ID)
	if db.IsForeignKeyViolation(err) {
		return apperr.NotFound("department not found")
	}
	if err != nil {
		return fmt.Errorf("insert calendar entry: %w", err)
	}
	return nil
}

// ListCalendarEntries returns entries dated within [from, to], inclusive.
func (s *SQLStore) ListCalendarEntries(ctx context.Context, from, to models.Date) ([]models.DutyCalendarEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT e.id, e.entry_date, e.department_id, d.name, e.summary, e.headcount
		FROM duty_calendar_entries e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.entry_date >= ? AND e.entry_date <= ?
		ORDER BY e.entry_date, e.id`,
		db.DateValue(from.Time), db.DateValue(to.Time),
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar entries: %w", err)
	}
	defer rows.Close()

	items := []models.DutyCalendarEntry{}
	for rows.Next() {
		var e models.DutyCalendarEntry
		var date db.ScanDate
		var dept sql.NullInt64
		var deptName sql.NullString
		if err := rows.Scan(&e.ID, &date, &dept, &deptName, &e.Summary, &e.Headcount); err != nil {
			return nil, err
		}
		e.Date = models.Date{Time: date.Time}
		e.DepartmentID = int64Ptr(dept)
		e.DepartmentName = stringPtr(deptName)
		items = append(items, e)
	}
	return items, rows.Err()
}
