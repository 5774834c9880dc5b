package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/db"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const userColumns = `u.id, u.email, u.password_hash, u.full_name, u.enabled, u.department_id,
	COALESCE(d.name, ''), u.created_at
	FROM users u LEFT JOIN departments d ON d.id = u.department_id`

// EnsureRoles inserts any missing role rows.
func (s *SQLStore) EnsureRoles(ctx context.Context, roles []models.RoleType) error {
	for _, r := range roles {
		if _, err := s.q.ExecContext(ctx,
			"INSERT INTO roles (name) VALUES (?) ON CONFLICT (name) DO NOTHING", string(r),
		); err != nil {
			return fmt.Errorf("ensure role %s: %w", r, err)
		}
	}
	return nil
}

// CreateUser inserts u and its roles in one transaction.
func (s *SQLStore) CreateUser(ctx context.Context, u *models.UserAccount) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	err := s.q.WithTx(ctx, func(tx *db.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO users (email, password_hash, full_name, enabled, department_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			u.Email, u.PasswordHash, u.FullName, u.Enabled, u.DepartmentID, db.Timestamp(u.CreatedAt),
		).Scan(&u.ID)
		if err != nil {
			return err
		}
		for _, r := range u.Roles {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO user_roles (user_id, role) VALUES (?, ?)", u.ID, string(r),
			); err != nil {
				return err
			}
		}
		return nil
	})
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("email already registered: %s", u.Email)
	case db.IsForeignKeyViolation(err):
		return apperr.Invalid("unknown department or role for %s", u.Email)
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*models.UserAccount, error) {
	return s.getUser(ctx, "u.id = ?", id, fmt.Sprintf("user not found: %d", id))
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	return s.getUser(ctx, "LOWER(u.email) = ?", strings.ToLower(email), "user not found: "+email)
}

func (s *SQLStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE LOWER(email) = ?", strings.ToLower(email)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

func (s *SQLStore) getUser(ctx context.Context, where string, arg any, notFound string) (*models.UserAccount, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+userColumns+" WHERE "+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("%s", notFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	roles, err := s.rolesFor(ctx, []int64{u.ID})
	if err != nil {
		return nil, err
	}
	u.Roles = roles[u.ID]
	return u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]models.UserAccount, error) {
	rows, err := s.q.QueryContext(ctx, "SELECT "+userColumns+" ORDER BY u.id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := []models.UserAccount{}
	var ids []int64
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, *u)
		ids = append(ids, u.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Roles are loaded after the user cursor is closed; SQLite runs on a
	// single connection.
	roles, err := s.rolesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Roles = roles[users[i].ID]
	}
	return users, nil
}

func (s *SQLStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := s.q.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return fmt.Errorf("update password %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found: %d", id)
	}
	return nil
}

func (s *SQLStore) rolesFor(ctx context.Context, ids []int64) (map[int64][]models.RoleType, error) {
	out := make(map[int64][]models.RoleType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT user_id, role FROM user_roles WHERE user_id IN ("+placeholders+") ORDER BY user_id, role", args...)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var role string
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		out[id] = append(out[id], models.RoleType(role))
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.UserAccount, error) {
	var u models.UserAccount
	var dept sql.NullInt64
	var created db.ScanTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Enabled, &dept, &u.DepartmentName, &created); err != nil {
		return nil, err
	}
	u.DepartmentID = int64Ptr(dept)
	u.CreatedAt = created.Time
	return &u, nil
}
