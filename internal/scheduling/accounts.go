package scheduling

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/auth"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

var validate = validator.New()

type RegisterInput struct {
	Email        string
	Password     string
	FullName     string
	DepartmentID *int64
	Roles        []models.RoleType
}

// AccountService handles registration, login and account administration.
type AccountService struct {
	users       UserStore
	departments DepartmentStore
	tokens      TokenIssuer
	bcryptCost  int
	log         *zap.Logger
}

func NewAccountService(users UserStore, departments DepartmentStore, tokens TokenIssuer, bcryptCost int, log *zap.Logger) *AccountService {
	return &AccountService{users: users, departments: departments, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

// Register creates a self-service account. Only DOCTOR and NURSE can be
// requested; anything else falls back to NURSE.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.AuthResponse, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email,max=255"); err != nil {
		return nil, apperr.Invalid("email is invalid")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, apperr.Invalid("full name must not be blank")
	}
	if err := checkLength("full name", fullName, 120); err != nil {
		return nil, err
	}
	if len(in.Roles) == 0 {
		return nil, apperr.Invalid("at least one role is required")
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("email already registered")
	}
	if in.DepartmentID != nil {
		ok, err := s.departments.DepartmentExists(ctx, *in.DepartmentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NotFound("department not found: %d", *in.DepartmentID)
		}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &models.UserAccount{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Enabled:      true,
		Roles:        selfServiceRoles(in.Roles),
		DepartmentID: in.DepartmentID,
	}
	if err := s.users.EnsureRoles(ctx, u.Roles); err != nil {
		return nil, err
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return s.respond(u)
}

// Login verifies credentials. Unknown emails, wrong passwords and disabled
// accounts are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	u, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized("bad credentials")
	}
	if err != nil {
		return nil, err
	}
	if !u.Enabled || !auth.CheckPassword(u.PasswordHash, password) {
		s.log.Warn("login rejected", zap.String("email", u.Email), zap.Bool("enabled", u.Enabled))
		return nil, apperr.Unauthorized("bad credentials")
	}
	return s.respond(u)
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *AccountService) GetUser(ctx context.Context, id int64) (*models.UserSummary, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := u.Summary()
	return &sum, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id int64, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("user_id", id))
	return nil
}

// Bootstrap makes sure every role exists and that an administrator account
// is present. It reports whether the admin was created.
func (s *AccountService) Bootstrap(ctx context.Context, adminEmail, adminPassword string) (bool, error) {
	if err := s.users.EnsureRoles(ctx, models.AllRoles); err != nil {
		return false, err
	}
	email := normalizeEmail(adminEmail)
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil || exists {
		return false, err
	}
	hash, err := auth.HashPassword(adminPassword, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin := &models.UserAccount{
		Email:        email,
		PasswordHash: hash,
		FullName:     "System Admin",
		Enabled:      true,
		Roles:        []models.RoleType{models.RoleAdmin},
	}
	if err := s.users.CreateUser(ctx, admin); err != nil {
		return false, err
	}
	s.log.Info("admin account created", zap.String("email", email))
	return true, nil
}

func (s *AccountService) respond(u *models.UserAccount) (*models.AuthResponse, error) {
	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: exp,
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Roles:     u.Roles,
	}, nil
}

func selfServiceRoles(requested []models.RoleType) []models.RoleType {
	var out []models.RoleType
	for _, r := range []models.RoleType{models.RoleDoctor, models.RoleNurse} {
		if models.HasRole(requested, r) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return []models.RoleType{models.RoleNurse}
	}
	return out
}

func checkPassword(p string) error {
	if len(p) < minPasswordLen || len(p) > maxPasswordLen {
		return apperr.Invalid("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
