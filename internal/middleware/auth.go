package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/apperr"
	"github.com/hospital-shifts/scheduler/internal/auth"
	"github.com/hospital-shifts/scheduler/internal/models"
)

// TokenParser verifies a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*auth.Principal, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller for later handlers.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			RespondError(c, apperr.Unauthorized("authentication required"))
			return
		}
		p, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Set(string(PrincipalKey), p)
		c.Next()
	}
}

// RequireRoles allows the request only when the caller holds one of roles.
// It must run after Authenticate.
func RequireRoles(roles ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Principal(c)
		if p == nil {
			RespondError(c, apperr.Unauthorized("authentication required"))
			return
		}
		if !p.HasAnyRole(roles...) {
			RespondError(c, apperr.Forbidden("access denied"))
			return
		}
		c.Next()
	}
}
