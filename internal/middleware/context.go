// Package middleware holds the gin handlers shared by every route: request
// ids and logging, panic recovery, CORS, bearer authentication and the JSON
// error envelope.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/hospital-shifts/scheduler/internal/auth"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	PrincipalKey contextKey = "principal"

	RequestIDHeader = "X-Request-ID"
)

// Principal returns the caller stored by Authenticate, or nil on public routes.
func Principal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(string(PrincipalKey))
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// RequestID returns the id assigned to the current request.
func RequestID(c *gin.Context) string {
	return c.GetString(string(RequestIDKey))
}
