package db

import (
	"context"
	"fmt"
	"strings"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id {{id}},
		name VARCHAR(120) NOT NULL UNIQUE,
		description VARCHAR(512) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		name VARCHAR(40) PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id {{id}},
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(120) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		department_id BIGINT REFERENCES departments(id) ON DELETE SET NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(40) NOT NULL REFERENCES roles(name),
		PRIMARY KEY (user_id, role)
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id {{id}},
		version BIGINT NOT NULL DEFAULT 0,
		start_time {{ts}} NOT NULL,
		end_time {{ts}} NOT NULL,
		required_role VARCHAR(40) NOT NULL,
		status VARCHAR(20) NOT NULL,
		department_id BIGINT NOT NULL REFERENCES departments(id),
		assignee_user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		notes VARCHAR(512) NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_start ON shifts(start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_department ON shifts(department_id)`,
	`CREATE TABLE IF NOT EXISTS duty_calendar_entries (
		id {{id}},
		entry_date {{date}} NOT NULL,
		department_id BIGINT REFERENCES departments(id) ON DELETE SET NULL,
		summary VARCHAR(256) NOT NULL,
		headcount INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_date ON duty_calendar_entries(entry_date)`,
	`CREATE TABLE IF NOT EXISTS agent_tasks (
		id {{id}},
		version BIGINT NOT NULL DEFAULT 0,
		task_type VARCHAR(40) NOT NULL,
		status VARCHAR(20) NOT NULL,
		payload TEXT NOT NULL,
		result TEXT,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_tasks_status ON agent_tasks(status, created_at)`,
	`CREATE TABLE IF NOT EXISTS agent_chat_messages (
		id {{id}},
		sender VARCHAR(120) NOT NULL,
		role VARCHAR(40) NOT NULL,
		content VARCHAR(1000) NOT NULL,
		sent_at {{ts}} NOT NULL
	)`,
}

func (q *Queries) dialect() *strings.Replacer {
	if q.driver == DriverPostgres {
		return strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{ts}}", "TIMESTAMPTZ",
			"{{date}}", "DATE",
		)
	}
	// Times are stored as fixed-width UTC text so they compare lexically.
	return strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TEXT",
		"{{date}}", "TEXT",
	)
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func (q *Queries) Migrate(ctx context.Context) error {
	r := q.dialect()
	for _, stmt := range schemaStatements {
		if _, err := q.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
