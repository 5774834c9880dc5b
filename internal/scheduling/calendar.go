package scheduling

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

const maxSummaryLen = 256

type CalendarEntryInput struct {
	Date         models.Date
	DepartmentID *int64
	Summary      string
	Headcount    *int
}

type CalendarService struct {
	store       CalendarStore
	departments DepartmentStore
	now         func() time.Time
}

func NewCalendarService(store CalendarStore, departments DepartmentStore) *CalendarService {
	return &CalendarService{store: store, departments: departments, now: time.Now}
}

func (s *CalendarService) CreateEntry(ctx context.Context, in CalendarEntryInput) (*models.DutyCalendarEntry, error) {
	if in.Date.IsZero() {
		return nil, apperr.Invalid("date is required")
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return nil, apperr.Invalid("summary must not be blank")
	}
	if utf8.RuneCountInString(summary) > maxSummaryLen {
		return nil, apperr.Invalid("summary must be at most %d characters", maxSummaryLen)
	}
	headcount := 0
	if in.Headcount != nil {
		headcount = *in.Headcount
	}
	if headcount < 0 {
		return nil, apperr.Invalid("headcount must not be negative")
	}

	var deptName *string
	if in.DepartmentID != nil {
		d, err := s.departments.GetDepartment(ctx, *in.DepartmentID)
		if err != nil {
			return nil, err
		}
		deptName = &d.Name
	}

	e := &models.DutyCalendarEntry{
		Date:           in.Date,
		DepartmentID:   in.DepartmentID,
		DepartmentName: deptName,
		Summary:        summary,
		Headcount:      headcount,
	}
	if err := s.store.CreateCalendarEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByRange returns entries dated within [start, end]. A nil start means
// the first of the current month and a nil end means one month after start,
// minus a day.
func (s *CalendarService) ListByRange(ctx context.Context, start, end *models.Date) ([]models.DutyCalendarEntry, error) {
	var from models.Date
	if start != nil {
		from = *start
	} else {
		now := s.now()
		from = models.NewDate(now.Year(), now.Month(), 1)
	}
	to := oneMonthLater(from)
	to.Time = to.AddDate(0, 0, -1)
	if end != nil {
		to = *end
	}
	return s.store.ListCalendarEntries(ctx, from, to)
}

// oneMonthLater adds a calendar month, clamping to the last day of the
// target month (Jan 31 becomes Feb 28).
func oneMonthLater(d models.Date) models.Date {
	y, m, day := d.Date()
	last := time.Date(y, m+2, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return models.NewDate(y, m+1, day)
}
