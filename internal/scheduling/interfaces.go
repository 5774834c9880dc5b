package scheduling

import (
	"context"
	"time"

	"github.com/hospital-shifts/scheduler/internal/models"
)

// DepartmentStore defines the interface for department persistence
type DepartmentStore interface {
	CreateDepartment(ctx context.Context, d *models.Department) error
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	UpdateDepartment(ctx context.Context, d *models.Department) error
	DeleteDepartment(ctx context.Context, id int64) error
}

// UserStore defines the interface for account persistence
type UserStore interface {
	EnsureRoles(ctx context.Context, roles []models.RoleType) error
	CreateUser(ctx context.Context, u *models.UserAccount) error
	GetUser(ctx context.Context, id int64) (*models.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context) ([]models.UserAccount, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// ShiftStore defines the interface for shift persistence
type ShiftStore interface {
	CreateShift(ctx context.Context, s *models.Shift) error
	GetShift(ctx context.Context, id int64) (*models.Shift, error)
	ListShifts(ctx context.Context, f models.ShiftFilter) ([]models.Shift, error)
	UpdateShift(ctx context.Context, s *models.Shift) error
	DeleteShift(ctx context.Context, id int64) error
}

// CalendarStore defines the interface for duty calendar persistence
type CalendarStore interface {
	CreateCalendarEntry(ctx context.Context, e *models.DutyCalendarEntry) error
	ListCalendarEntries(ctx context.Context, from, to models.Date) ([]models.DutyCalendarEntry, error)
}

// AgentTaskStore defines the interface for agent task persistence
type AgentTaskStore interface {
	CreateAgentTask(ctx context.Context, t *models.AgentTask) error
	GetAgentTask(ctx context.Context, id int64) (*models.AgentTask, error)
	ListAgentTasksByStatus(ctx context.Context, status models.AgentTaskStatus, limit int) ([]models.AgentTask, error)
	UpdateAgentTask(ctx context.Context, t *models.AgentTask) error
}

// ChatStore defines the interface for chat history persistence
type ChatStore interface {
	SaveChatMessage(ctx context.Context, m *models.ChatMessage) error
	RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

// Publisher fans domain events out to live-update subscribers.
type Publisher interface {
	Publish(topic, eventType string, payload any)
}

// TokenIssuer signs access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(u *models.UserAccount) (string, time.Time, error)
}

// WorkflowClient produces assistant replies.
type WorkflowClient interface {
	Run(ctx context.Context, input string) (string, error)
	Mode() string
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, any) {}
