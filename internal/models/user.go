package models

import "time"

type UserAccount struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	FullName       string     `json:"fullName"`
	Enabled        bool       `json:"enabled"`
	Roles          []RoleType `json:"roles"`
	DepartmentID   *int64     `json:"departmentId"`
	DepartmentName string     `json:"departmentName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// UserSummary is the admin-facing view of an account.
type UserSummary struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FullName       string     `json:"fullName"`
	Roles          []RoleType `json:"roles"`
	DepartmentID   *int64     `json:"departmentId"`
	DepartmentName *string    `json:"departmentName"`
}

func (u *UserAccount) Summary() UserSummary {
	s := UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Roles:        u.Roles,
		DepartmentID: u.DepartmentID,
	}
	if u.DepartmentID != nil {
		name := u.DepartmentName
		s.DepartmentName = &name
	}
	return s
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string     `json:"token"`
	TokenType string     `json:"tokenType"`
	ExpiresAt time.Time  `json:"expiresAt"`
	UserID    int64      `json:"userId"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Roles     []RoleType `json:"roles"`
}
