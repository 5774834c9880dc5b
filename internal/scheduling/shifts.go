package scheduling

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

// Default listing window around now when callers omit a range.
const (
	defaultLookBack  = 7 * 24 * time.Hour
	defaultLookAhead = 30 * 24 * time.Hour

	maxNotesLen = 512
)

type CreateShiftInput struct {
	StartTime    models.DateTime
	EndTime      models.DateTime
	RequiredRole models.RoleType
	DepartmentID int64
	Notes        string
}

type AssignShiftInput struct {
	AssigneeUserID *int64
	Notes          string
	Status         models.ShiftStatus
}

type UpdateShiftInput struct {
	StartTime      models.DateTime
	EndTime        models.DateTime
	RequiredRole   models.RoleType
	Status         models.ShiftStatus
	DepartmentID   int64
	AssigneeUserID *int64
	Notes          string
}

type ShiftService struct {
	shifts      ShiftStore
	departments DepartmentStore
	users       UserStore
	pub         Publisher
	log         *zap.Logger
	now         func() time.Time
}

func NewShiftService(shifts ShiftStore, departments DepartmentStore, users UserStore, pub Publisher, log *zap.Logger) *ShiftService {
	return &ShiftService{
		shifts:      shifts,
		departments: departments,
		users:       users,
		pub:         pub,
		log:         log,
		now:         time.Now,
	}
}

func (s *ShiftService) Create(ctx context.Context, in CreateShiftInput) (*models.Shift, error) {
	if err := validateTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if !in.EndTime.After(s.now()) {
		return nil, apperr.Invalid("shift end time must be in the future")
	}
	if !in.RequiredRole.Valid() {
		return nil, apperr.Invalid("required role is invalid: %q", in.RequiredRole)
	}
	notes := strings.TrimSpace(in.Notes)
	if err := checkLength("notes", notes, maxNotesLen); err != nil {
		return nil, err
	}
	if err := s.requireDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}

	sh := &models.Shift{
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		RequiredRole: in.RequiredRole,
		Status:       models.ShiftOpen,
		DepartmentID: in.DepartmentID,
		Notes:        notes,
	}
	if err := s.shifts.CreateShift(ctx, sh); err != nil {
		return nil, err
	}
	created, err := s.shifts.GetShift(ctx, sh.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("shift created",
		zap.Int64("shift_id", created.ID),
		zap.Int64("department_id", created.DepartmentID),
		zap.Time("start", created.StartTime.Time),
	)
	s.pub.Publish(models.TopicShifts, models.EventShiftCreated, created)
	return created, nil
}

func (s *ShiftService) List(ctx context.Context) ([]models.Shift, error) {
	return s.shifts.ListShifts(ctx, models.ShiftFilter{})
}

func (s *ShiftService) ListOpen(ctx context.Context) ([]models.Shift, error) {
	open := models.ShiftOpen
	return s.shifts.ListShifts(ctx, models.ShiftFilter{Status: &open})
}

func (s *ShiftService) Get(ctx context.Context, id int64) (*models.Shift, error) {
	return s.shifts.GetShift(ctx, id)
}

// ListByDepartment returns a department's shifts starting within
// [start, end]. Nil bounds default to the week before and the month after now.
func (s *ShiftService) ListByDepartment(ctx context.Context, departmentID int64, start, end *time.Time) ([]models.Shift, error) {
	if err := s.requireDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	from, to := s.window(start, end)
	return s.shifts.ListShifts(ctx, models.ShiftFilter{DepartmentID: &departmentID, From: &from, To: &to})
}

// UpdateAssignment sets or clears the assignee, notes and status of a shift.
func (s *ShiftService) UpdateAssignment(ctx context.Context, id int64, in AssignShiftInput) (*models.Shift, error) {
	if !in.Status.Valid() {
		return nil, apperr.Invalid("shift status is required")
	}
	notes := strings.TrimSpace(in.Notes)
	if err := checkLength("notes", notes, maxNotesLen); err != nil {
		return nil, err
	}
	sh, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.AssigneeUserID != nil {
		if err := s.requireRole(ctx, *in.AssigneeUserID, sh.RequiredRole); err != nil {
			return nil, err
		}
	}
	sh.AssigneeUserID = in.AssigneeUserID
	sh.Notes = notes
	sh.Status = in.Status
	return s.save(ctx, sh)
}

// UpdateDetails replaces every editable field of a shift.
func (s *ShiftService) UpdateDetails(ctx context.Context, id int64, in UpdateShiftInput) (*models.Shift, error) {
	if err := validateTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}
	if !in.RequiredRole.Valid() {
		return nil, apperr.Invalid("required role is invalid: %q", in.RequiredRole)
	}
	if !in.Status.Valid() {
		return nil, apperr.Invalid("shift status is required")
	}
	notes := strings.TrimSpace(in.Notes)
	if err := checkLength("notes", notes, maxNotesLen); err != nil {
		return nil, err
	}
	sh, err := s.shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireDepartment(ctx, in.DepartmentID); err != nil {
		return nil, err
	}
	if in.AssigneeUserID != nil {
		if err := s.requireRole(ctx, *in.AssigneeUserID, in.RequiredRole); err != nil {
			return nil, err
		}
	}

	sh.StartTime = in.StartTime
	sh.EndTime = in.EndTime
	sh.RequiredRole = in.RequiredRole
	sh.Status = in.Status
	sh.DepartmentID = in.DepartmentID
	sh.AssigneeUserID = in.AssigneeUserID
	sh.Notes = notes
	return s.save(ctx, sh)
}

func (s *ShiftService) Delete(ctx context.Context, id int64) error {
	if err := s.shifts.DeleteShift(ctx, id); err != nil {
		return err
	}
	s.log.Info("shift deleted", zap.Int64("shift_id", id))
	s.pub.Publish(models.TopicShifts, models.EventShiftDeleted, map[string]int64{"shiftId": id})
	return nil
}

func (s *ShiftService) save(ctx context.Context, sh *models.Shift) (*models.Shift, error) {
	if err := s.shifts.UpdateShift(ctx, sh); err != nil {
		return nil, err
	}
	updated, err := s.shifts.GetShift(ctx, sh.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("shift updated",
		zap.Int64("shift_id", updated.ID),
		zap.String("status", string(updated.Status)),
		zap.Int64("version", updated.Version),
	)
	s.pub.Publish(models.TopicShifts, models.EventShiftUpdated, updated)
	return updated, nil
}

func (s *ShiftService) requireDepartment(ctx context.Context, id int64) error {
	ok, err := s.departments.DepartmentExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("department not found: %d", id)
	}
	return nil
}

func (s *ShiftService) requireRole(ctx context.Context, userID int64, role models.RoleType) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !models.HasRole(u.Roles, role) {
		return apperr.Invalid("user %d does not have the required role %s", userID, role)
	}
	return nil
}

func (s *ShiftService) window(start, end *time.Time) (time.Time, time.Time) {
	now := s.now()
	from, to := now.Add(-defaultLookBack), now.Add(defaultLookAhead)
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	return from, to
}

func validateTimes(start, end models.DateTime) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid("shift start and end time are required")
	}
	if !end.After(start.Time) {
		return apperr.Invalid("shift end must be after start")
	}
	return nil
}
