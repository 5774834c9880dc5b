package models

type DutyCalendarEntry struct {
	ID             int64   `json:"id"`
	Date           Date    `json:"date"`
	DepartmentID   *int64  `json:"departmentId"`
	DepartmentName *string `json:"departmentName"`
	Summary        string  `json:"summary"`
	Headcount      int     `json:"headcount"`
}
