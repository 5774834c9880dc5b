package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewMemoryStore(context.Background(), uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.EnsureRoles(context.Background(), models.AllRoles))
	return s
}

func seedDepartment(t *testing.T, s *SQLStore, name string) *models.Department {
	t.Helper()
	d := &models.Department{Name: name, Description: name + " ward"}
	require.NoError(t, s.CreateDepartment(context.Background(), d))
	return d
}

func seedUser(t *testing.T, s *SQLStore, email string, roles ...models.RoleType) *models.UserAccount {
	t.Helper()
	u := &models.UserAccount{Email: email, PasswordHash: "hash", FullName: "User " + email, Enabled: true, Roles: roles}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestDepartments_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	icu := seedDepartment(t, s, "ICU")
	assert.NotZero(t, icu.ID)

	err := s.CreateDepartment(ctx, &models.Department{Name: "ICU"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	icu.Description = "Intensive care"
	require.NoError(t, s.UpdateDepartment(ctx, icu))
	got, err := s.GetDepartment(ctx, icu.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intensive care", got.Description)

	list, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteDepartment(ctx, icu.ID))
	_, err = s.GetDepartment(ctx, icu.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.DeleteDepartment(ctx, icu.ID), apperr.ErrNotFound)
}

func TestDeleteDepartment_WithShiftsConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDepartment(t, s, "ER")

	start := time.Now().Add(24 * time.Hour)
	sh := &models.Shift{
		StartTime: models.NewDateTime(start), EndTime: models.NewDateTime(start.Add(8 * time.Hour)),
		RequiredRole: models.RoleNurse, Status: models.ShiftOpen, DepartmentID: d.ID,
	}
	require.NoError(t, s.CreateShift(ctx, sh))

	assert.ErrorIs(t, s.DeleteDepartment(ctx, d.ID), apperr.ErrConflict)
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDepartment(t, s, "Cardiology")

	u := &models.UserAccount{
		Email: "Doc@Hospital.local", PasswordHash: "h", FullName: "Dr. Who", Enabled: true,
		Roles: []models.RoleType{models.RoleDoctor, models.RoleNurse}, DepartmentID: &d.ID,
	}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUserByEmail(ctx, "doc@hospital.local")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Cardiology", got.DepartmentName)
	assert.ElementsMatch(t, []models.RoleType{models.RoleDoctor, models.RoleNurse}, got.Roles)

	exists, err := s.EmailExists(ctx, "DOC@hospital.local")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &models.UserAccount{Email: "Doc@Hospital.local", PasswordHash: "h", FullName: "x", Roles: []models.RoleType{models.RoleNurse}}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), apperr.ErrConflict)

	_, err = s.GetUser(ctx, 4242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUsers_ListAndPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedUser(t, s, "a@h.local", models.RoleAdmin)
	seedUser(t, s, "b@h.local", models.RoleNurse)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []models.RoleType{models.RoleAdmin}, users[0].Roles)
	assert.Equal(t, []models.RoleType{models.RoleNurse}, users[1].Roles)

	require.NoError(t, s.UpdatePassword(ctx, a.ID, "new-hash"))
	got, err := s.GetUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdatePassword(ctx, 999, "x"), apperr.ErrNotFound)
}

func TestShifts_ListFiltersAndNames(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	icu := seedDepartment(t, s, "ICU")
	er := seedDepartment(t, s, "ER")
	nurse := seedUser(t, s, "n@h.local", models.RoleNurse)

	base := time.Date(2031, 1, 10, 8, 0, 0, 0, time.Local)
	mk := func(dept int64, offset time.Duration, status models.ShiftStatus, assignee *int64) *models.Shift {
		sh := &models.Shift{
			StartTime: models.NewDateTime(base.Add(offset)), EndTime: models.NewDateTime(base.Add(offset + 8*time.Hour)),
			RequiredRole: models.RoleNurse, Status: status, DepartmentID: dept, AssigneeUserID: assignee,
		}
		require.NoError(t, s.CreateShift(ctx, sh))
		return sh
	}
	first := mk(icu.ID, 0, models.ShiftAssigned, &nurse.ID)
	mk(icu.ID, 48*time.Hour, models.ShiftOpen, nil)
	mk(er.ID, 24*time.Hour, models.ShiftOpen, nil)

	all, err := s.ListShifts(ctx, models.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "ICU", all[0].DepartmentName)
	require.NotNil(t, all[0].AssigneeName)
	assert.Equal(t, "User n@h.local", *all[0].AssigneeName)
	assert.True(t, base.Equal(all[0].StartTime.Time))

	open := models.ShiftOpen
	openShifts, err := s.ListShifts(ctx, models.ShiftFilter{Status: &open})
	require.NoError(t, err)
	assert.Len(t, openShifts, 2)

	from, to := base, base.Add(24*time.Hour)
	ranged, err := s.ListShifts(ctx, models.ShiftFilter{DepartmentID: &icu.ID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, first.ID, ranged[0].ID)
}

func TestUpdateShift_OptimisticVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDepartment(t, s, "ICU")

	start := time.Now().Add(time.Hour)
	sh := &models.Shift{
		StartTime: models.NewDateTime(start), EndTime: models.NewDateTime(start.Add(time.Hour)),
		RequiredRole: models.RoleDoctor, Status: models.ShiftOpen, DepartmentID: d.ID,
	}
	require.NoError(t, s.CreateShift(ctx, sh))

	stale := *sh
	sh.Notes = "first writer"
	require.NoError(t, s.UpdateShift(ctx, sh))
	assert.Equal(t, int64(1), sh.Version)

	stale.Notes = "second writer"
	assert.ErrorIs(t, s.UpdateShift(ctx, &stale), apperr.ErrConflict)

	missing := *sh
	missing.ID = 999
	assert.ErrorIs(t, s.UpdateShift(ctx, &missing), apperr.ErrNotFound)

	got, err := s.GetShift(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", got.Notes)

	require.NoError(t, s.DeleteShift(ctx, sh.ID))
	assert.ErrorIs(t, s.DeleteShift(ctx, sh.ID), apperr.ErrNotFound)
}

func TestCalendar_RangeInclusive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := seedDepartment(t, s, "ICU")

	for _, day := range []int{1, 15, 31} {
		e := &models.DutyCalendarEntry{Date: models.NewDate(2031, 1, day), Summary: "on call", Headcount: day}
		if day == 15 {
			e.DepartmentID = &d.ID
		}
		require.NoError(t, s.CreateCalendarEntry(ctx, e))
	}
	require.NoError(t, s.CreateCalendarEntry(ctx, &models.DutyCalendarEntry{Date: models.NewDate(2031, 2, 1), Summary: "next"}))

	got, err := s.ListCalendarEntries(ctx, models.NewDate(2031, 1, 1), models.NewDate(2031, 1, 31))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2031-01-01", got[0].Date.String())
	assert.Equal(t, "2031-01-31", got[2].Date.String())
	require.NotNil(t, got[1].DepartmentName)
	assert.Equal(t, "ICU", *got[1].DepartmentName)
	assert.Nil(t, got[0].DepartmentID)

	bad := int64(77)
	err = s.CreateCalendarEntry(ctx, &models.DutyCalendarEntry{Date: models.NewDate(2031, 1, 2), DepartmentID: &bad, Summary: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAgentTasks_PendingOrderAndUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.AgentTask{TaskType: models.TaskDataSync, Status: models.TaskPending, Payload: "a"}
	second := &models.AgentTask{TaskType: models.TaskScheduleGeneration, Status: models.TaskPending, Payload: "b"}
	require.NoError(t, s.CreateAgentTask(ctx, first))
	require.NoError(t, s.CreateAgentTask(ctx, second))

	pending, err := s.ListAgentTasksByStatus(ctx, models.TaskPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)

	limited, err := s.ListAgentTasksByStatus(ctx, models.TaskPending, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	result := "done"
	first.Status = models.TaskCompleted
	first.Result = &result
	require.NoError(t, s.UpdateAgentTask(ctx, first))

	got, err := s.GetAgentTask(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "done", *got.Result)
	assert.Equal(t, int64(1), got.Version)

	stale := *second
	second.Status = models.TaskInProgress
	require.NoError(t, s.UpdateAgentTask(ctx, second))
	stale.Status = models.TaskFailed
	assert.ErrorIs(t, s.UpdateAgentTask(ctx, &stale), apperr.ErrConflict)

	_, err = s.GetAgentTask(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestChat_RecentIsChronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2031, 1, 1, 9, 0, 0, 0, time.Local)
	for i, content := range []string{"one", "two", "three"} {
		m := &models.ChatMessage{Sender: "nurse", Role: models.ChatRoleClient, Content: content, Timestamp: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.SaveChatMessage(ctx, m))
		assert.NotZero(t, m.ID)
	}

	got, err := s.RecentChatMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Content)
	assert.Equal(t, "three", got[1].Content)
}
