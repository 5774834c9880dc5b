package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/hospital-shifts/scheduler/internal/models"
)

const maxAssigneeBuckets = 8

// Summary aggregates shifts starting within [start, end] for the dashboard.
func (s *ShiftService) Summary(ctx context.Context, start, end *time.Time) (*models.ShiftSummary, error) {
	from, to := s.window(start, end)
	shifts, err := s.shifts.ListShifts(ctx, models.ShiftFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	return summarize(shifts), nil
}

func summarize(shifts []models.Shift) *models.ShiftSummary {
	sum := &models.ShiftSummary{TotalShifts: int64(len(shifts))}
	roles := map[string]int64{}
	departments := map[string]int64{}
	assignees := map[string]int64{}
	distinct := map[int64]struct{}{}

	for _, sh := range shifts {
		if isNightShift(sh.StartTime.Time, sh.EndTime.Time) {
			sum.NightShifts++
		}
		roles[string(sh.RequiredRole)]++
		if sh.DepartmentName != "" {
			departments[sh.DepartmentName]++
		}
		if sh.AssigneeUserID != nil {
			sum.AssignedShifts++
			distinct[*sh.AssigneeUserID] = struct{}{}
			if sh.AssigneeName != nil {
				assignees[*sh.AssigneeName]++
			}
		}
	}
	sum.UnassignedShifts = sum.TotalShifts - sum.AssignedShifts
	sum.TotalAssignees = int64(len(distinct))

	sum.RoleDistribution = byLabel(roles)
	sum.DepartmentDistribution = byCount(departments, 0)
	sum.AssigneeDistribution = byCount(assignees, maxAssigneeBuckets)
	return sum
}

// isNightShift reports whether either end of the shift falls after 17:59
// or before 06:00 local time.
func isNightShift(start, end time.Time) bool {
	if start.IsZero() {
		return false
	}
	return isNightTime(start) || (!end.IsZero() && isNightTime(end))
}

func isNightTime(t time.Time) bool {
	t = t.In(time.Local)
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return secs > 17*3600+59*60 || t.Hour() < 6 || (secs == 17*3600+59*60 && t.Nanosecond() > 0)
}

func byLabel(counts map[string]int64) []models.SummaryItem {
	items := toItems(counts)
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func byCount(counts map[string]int64, limit int) []models.SummaryItem {
	items := toItems(counts)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Label < items[j].Label
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func toItems(counts map[string]int64) []models.SummaryItem {
	items := make([]models.SummaryItem, 0, len(counts))
	for label, n := range counts {
		items = append(items, models.SummaryItem{Label: label, Count: n})
	}
	return items
}
