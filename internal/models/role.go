package models

import (
	"fmt"
	"strings"
)

type RoleType string

const (
	RoleAdmin       RoleType = "ADMIN"
	RoleCoordinator RoleType = "COORDINATOR"
	RoleDoctor      RoleType = "DOCTOR"
	RoleNurse       RoleType = "NURSE"
	RoleAgent       RoleType = "AGENT"
)

// AllRoles lists every role in declaration order.
var AllRoles = []RoleType{RoleAdmin, RoleCoordinator, RoleDoctor, RoleNurse, RoleAgent}

func (r RoleType) Valid() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleDoctor, RoleNurse, RoleAgent:
		return true
	}
	return false
}

func ParseRole(s string) (RoleType, error) {
	r := RoleType(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// HasRole reports whether role is present in roles.
func HasRole(roles []RoleType, role RoleType) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
