package models

import (
	"fmt"
	"strings"
	"time"
)

type ShiftStatus string

const (
	ShiftOpen      ShiftStatus = "OPEN"
	ShiftAssigned  ShiftStatus = "ASSIGNED"
	ShiftCancelled ShiftStatus = "CANCELLED"
	ShiftCompleted ShiftStatus = "COMPLETED"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftOpen, ShiftAssigned, ShiftCancelled, ShiftCompleted:
		return true
	}
	return false
}

func ParseShiftStatus(s string) (ShiftStatus, error) {
	st := ShiftStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown shift status %q", s)
	}
	return st, nil
}

type Shift struct {
	ID             int64       `json:"id"`
	Version        int64       `json:"version"`
	StartTime      DateTime    `json:"startTime"`
	EndTime        DateTime    `json:"endTime"`
	RequiredRole   RoleType    `json:"requiredRole"`
	Status         ShiftStatus `json:"status"`
	DepartmentID   int64       `json:"departmentId"`
	DepartmentName string      `json:"departmentName"`
	AssigneeUserID *int64      `json:"assigneeUserId"`
	AssigneeName   *string     `json:"assigneeName"`
	Notes          string      `json:"notes"`
}

// ShiftFilter narrows shift listings. Nil fields are ignored; From and To
// bound StartTime inclusively.
type ShiftFilter struct {
	Status       *ShiftStatus
	DepartmentID *int64
	From         *time.Time
	To           *time.Time
}

type SummaryItem struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type ShiftSummary struct {
	TotalShifts            int64         `json:"totalShifts"`
	NightShifts            int64         `json:"nightShifts"`
	AssignedShifts         int64         `json:"assignedShifts"`
	UnassignedShifts       int64         `json:"unassignedShifts"`
	TotalAssignees         int64         `json:"totalAssignees"`
	RoleDistribution       []SummaryItem `json:"roleDistribution"`
	DepartmentDistribution []SummaryItem `json:"departmentDistribution"`
	AssigneeDistribution   []SummaryItem `json:"assigneeDistribution"`
}
