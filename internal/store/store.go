package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
)

// SQLStore persists the scheduling domain in postgres or SQLite.
type SQLStore struct {
	q *db.Queries
}

func NewSQLStore(q *db.Queries) *SQLStore {
	return &SQLStore{q: q}
}

// NewMemoryStore opens a private in-memory SQLite database with the schema
// applied. Used by tests and local demos.
func NewMemoryStore(ctx context.Context, name string) (*SQLStore, error) {
	q, err := db.Open(ctx, db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	if err := q.Migrate(ctx); err != nil {
		q.Close()
		return nil, err
	}
	return NewSQLStore(q), nil
}

func (s *SQLStore) Close() error { return s.q.Close() }

func (s *SQLStore) Ping(ctx context.Context) error { return s.q.Ping(ctx) }

func (s *SQLStore) exists(ctx context.Context, table string, id int64) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return true, nil
}

// versionMiss explains why an optimistic update touched no rows.
func (s *SQLStore) versionMiss(ctx context.Context, table, what string, id int64) error {
	ok, err := s.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("%s not found: %d", what, id)
	}
	return apperr.Conflict("%s %d was modified concurrently", what, id)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
