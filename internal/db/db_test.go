package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Queries {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	q, err := Open(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	require.NoError(t, q.Migrate(context.Background()))
	return q
}

func TestRebind(t *testing.T) {
	pg := New(nil, DriverPostgres)
	lite := New(nil, DriverSQLite)

	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		if got := pg.Rebind(tt.in); got != tt.want {
			t.Errorf("Rebind(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got := lite.Rebind(tt.in); got != tt.in {
			t.Errorf("sqlite Rebind(%q) changed query to %q", tt.in, got)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	q := openMemory(t)
	require.NoError(t, q.Migrate(context.Background()))
}

func TestConstraintClassification(t *testing.T) {
	q := openMemory(t)
	ctx := context.Background()

	_, err := q.ExecContext(ctx, "INSERT INTO departments (name, description) VALUES (?, ?)", "ICU", "")
	require.NoError(t, err)

	_, err = q.ExecContext(ctx, "INSERT INTO departments (name, description) VALUES (?, ?)", "ICU", "")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	_, err = q.ExecContext(ctx,
		"INSERT INTO shifts (start_time, end_time, required_role, status, department_id) VALUES (?, ?, ?, ?, ?)",
		Timestamp(time.Now()), Timestamp(time.Now().Add(time.Hour)), "NURSE", "OPEN", 999)
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestScanTime_RoundTrip(t *testing.T) {
	q := openMemory(t)
	ctx := context.Background()

	want := time.Date(2030, 3, 1, 8, 30, 15, 0, time.Local)
	var id int64
	err := q.QueryRowContext(ctx,
		"INSERT INTO agent_chat_messages (sender, role, content, sent_at) VALUES (?, ?, ?, ?) RETURNING id",
		"nurse", "CLIENT", "hi", Timestamp(want)).Scan(&id)
	require.NoError(t, err)

	var got ScanTime
	require.NoError(t, q.QueryRowContext(ctx, "SELECT sent_at FROM agent_chat_messages WHERE id = ?", id).Scan(&got))
	assert.True(t, got.Valid)
	assert.True(t, want.Equal(got.Time), "got %v want %v", got.Time, want)
}

func TestScanDate(t *testing.T) {
	tests := []struct {
		src  any
		want time.Time
	}{
		{"2030-03-01", time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)},
		{[]byte("2030-12-31"), time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC)},
		{"2030-05-02T00:00:00Z", time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var d ScanDate
		if err := d.Scan(tt.src); err != nil {
			t.Errorf("Scan(%v) error = %v", tt.src, err)
			continue
		}
		if !d.Time.Equal(tt.want) {
			t.Errorf("Scan(%v) = %v, want %v", tt.src, d.Time, tt.want)
		}
	}
}
