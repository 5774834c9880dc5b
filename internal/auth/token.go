// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/models"
)

// Principal is the authenticated caller extracted from a token.
type Principal struct {
	UserID int64
	Email  string
	Roles  []models.RoleType
}

// HasAnyRole reports whether p holds at least one of roles.
func (p *Principal) HasAnyRole(roles ...models.RoleType) bool {
	for _, r := range roles {
		if models.HasRole(p.Roles, r) {
			return true
		}
	}
	return false
}

type claims struct {
	UID   int64    `json:"uid"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager signs HS256 tokens carrying the user id and roles.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for u and its expiry.
func (m *TokenManager) Issue(u *models.UserAccount) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	roles := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = string(r)
	}
	c := claims{
		UID:   u.ID,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies raw and returns its principal. Any failure is reported as
// unauthorized.
func (m *TokenManager) Parse(raw string) (*Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}

	p := &Principal{UserID: c.UID, Email: c.Subject}
	for _, r := range c.Roles {
		role, err := models.ParseRole(r)
		if err != nil {
			continue
		}
		p.Roles = append(p.Roles, role)
	}
	return p, nil
}
