package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

type MockDepartmentStore struct {
	CreateDepartmentFunc func(ctx context.Context, d *models.Department) error
	GetDepartmentFunc    func(ctx context.Context, id int64) (*models.Department, error)
	ListDepartmentsFunc  func(ctx context.Context) ([]models.Department, error)
	UpdateDepartmentFunc func(ctx context.Context, d *models.Department) error
	DeleteDepartmentFunc func(ctx context.Context, id int64) error
}

func (m *MockDepartmentStore) CreateDepartment(ctx context.Context, d *models.Department) error {
	return m.CreateDepartmentFunc(ctx, d)
}

func (m *MockDepartmentStore) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	return m.GetDepartmentFunc(ctx, id)
}

// DepartmentExists falls back to GetDepartment so tests only need to mock one lookup.
func (m *MockDepartmentStore) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	_, err := m.GetDepartmentFunc(ctx, id)
	if err != nil {
		if apperr.HTTPStatus(err) == 404 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *MockDepartmentStore) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return m.ListDepartmentsFunc(ctx)
}

func (m *MockDepartmentStore) UpdateDepartment(ctx context.Context, d *models.Department) error {
	return m.UpdateDepartmentFunc(ctx, d)
}

func (m *MockDepartmentStore) DeleteDepartment(ctx context.Context, id int64) error {
	return m.DeleteDepartmentFunc(ctx, id)
}

type MockUserStore struct {
	EnsureRolesFunc    func(ctx context.Context, roles []models.RoleType) error
	CreateUserFunc     func(ctx context.Context, u *models.UserAccount) error
	GetUserFunc        func(ctx context.Context, id int64) (*models.UserAccount, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (*models.UserAccount, error)
	EmailExistsFunc    func(ctx context.Context, email string) (bool, error)
	ListUsersFunc      func(ctx context.Context) ([]models.UserAccount, error)
	UpdatePasswordFunc func(ctx context.Context, id int64, hash string) error
}

func (m *MockUserStore) EnsureRoles(ctx context.Context, roles []models.RoleType) error {
	if m.EnsureRolesFunc == nil {
		return nil
	}
	return m.EnsureRolesFunc(ctx, roles)
}

func (m *MockUserStore) CreateUser(ctx context.Context, u *models.UserAccount) error {
	return m.CreateUserFunc(ctx, u)
}

func (m *MockUserStore) GetUser(ctx context.Context, id int64) (*models.UserAccount, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	return m.GetUserByEmailFunc(ctx, email)
}

func (m *MockUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return m.EmailExistsFunc(ctx, email)
}

func (m *MockUserStore) ListUsers(ctx context.Context) ([]models.UserAccount, error) {
	return m.ListUsersFunc(ctx)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return m.UpdatePasswordFunc(ctx, id, hash)
}

type MockShiftStore struct {
	CreateShiftFunc func(ctx context.Context, s *models.Shift) error
	GetShiftFunc    func(ctx context.Context, id int64) (*models.Shift, error)
	ListShiftsFunc  func(ctx context.Context, f models.ShiftFilter) ([]models.Shift, error)
	UpdateShiftFunc func(ctx context.Context, s *models.Shift) error
	DeleteShiftFunc func(ctx context.Context, id int64) error
}

func (m *MockShiftStore) CreateShift(ctx context.Context, s *models.Shift) error {
	return m.CreateShiftFunc(ctx, s)
}

func (m *MockShiftStore) GetShift(ctx context.Context, id int64) (*models.Shift, error) {
	return m.GetShiftFunc(ctx, id)
}

func (m *MockShiftStore) ListShifts(ctx context.Context, f models.ShiftFilter) ([]models.Shift, error) {
	return m.ListShiftsFunc(ctx, f)
}

func (m *MockShiftStore) UpdateShift(ctx context.Context, s *models.Shift) error {
	return m.UpdateShiftFunc(ctx, s)
}

func (m *MockShiftStore) DeleteShift(ctx context.Context, id int64) error {
	return m.DeleteShiftFunc(ctx, id)
}

type MockCalendarStore struct {
	CreateCalendarEntryFunc func(ctx context.Context, e *models.DutyCalendarEntry) error
	ListCalendarEntriesFunc func(ctx context.Context, from, to models.Date) ([]models.DutyCalendarEntry, error)
}

func (m *MockCalendarStore) CreateCalendarEntry(ctx context.Context, e *models.DutyCalendarEntry) error {
	return m.CreateCalendarEntryFunc(ctx, e)
}

func (m *MockCalendarStore) ListCalendarEntries(ctx context.Context, from, to models.Date) ([]models.DutyCalendarEntry, error) {
	return m.ListCalendarEntriesFunc(ctx, from, to)
}

type MockAgentTaskStore struct {
	CreateAgentTaskFunc        func(ctx context.Context, t *models.AgentTask) error
	GetAgentTaskFunc           func(ctx context.Context, id int64) (*models.AgentTask, error)
	ListAgentTasksByStatusFunc func(ctx context.Context, status models.AgentTaskStatus, limit int) ([]models.AgentTask, error)
	UpdateAgentTaskFunc        func(ctx context.Context, t *models.AgentTask) error
}

func (m *MockAgentTaskStore) CreateAgentTask(ctx context.Context, t *models.AgentTask) error {
	return m.CreateAgentTaskFunc(ctx, t)
}

func (m *MockAgentTaskStore) GetAgentTask(ctx context.Context, id int64) (*models.AgentTask, error) {
	return m.GetAgentTaskFunc(ctx, id)
}

func (m *MockAgentTaskStore) ListAgentTasksByStatus(ctx context.Context, status models.AgentTaskStatus, limit int) ([]models.AgentTask, error) {
	return m.ListAgentTasksByStatusFunc(ctx, status, limit)
}

func (m *MockAgentTaskStore) UpdateAgentTask(ctx context.Context, t *models.AgentTask) error {
	return m.UpdateAgentTaskFunc(ctx, t)
}

type MockChatStore struct {
	SaveChatMessageFunc    func(ctx context.Context, msg *models.ChatMessage) error
	RecentChatMessagesFunc func(ctx context.Context, limit int) ([]models.ChatMessage, error)
}

func (m *MockChatStore) SaveChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	return m.SaveChatMessageFunc(ctx, msg)
}

func (m *MockChatStore) RecentChatMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	return m.RecentChatMessagesFunc(ctx, limit)
}

type MockWorkflow struct {
	RunFunc func(ctx context.Context, input string) (string, error)
	mode    string
}

func (m *MockWorkflow) Run(ctx context.Context, input string) (string, error) {
	return m.RunFunc(ctx, input)
}

func (m *MockWorkflow) Mode() string { return m.mode }

type MockTokens struct{}

func (MockTokens) Issue(u *models.UserAccount) (string, time.Time, error) {
	return "token-for-" + u.Email, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type published struct {
	Topic   string
	Type    string
	Payload any
}

// recordingPublisher captures every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(topic, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

func departmentsWith(ids ...int64) *MockDepartmentStore {
	known := map[int64]bool{}
	for _, id := range ids {
		known[id] = true
	}
	return &MockDepartmentStore{
		GetDepartmentFunc: func(ctx context.Context, id int64) (*models.Department, error) {
			if !known[id] {
				return nil, apperr.NotFound("department not found: %d", id)
			}
			return &models.Department{ID: id, Name: "Dept"}, nil
		},
	}
}
