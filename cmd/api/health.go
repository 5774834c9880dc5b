package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "Hospital Scheduling System"
	serviceVersion = "1.0.0"
)

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "UP",
		"timestamp": time.Now(),
		"service":   serviceName,
		"version":   serviceVersion,
	})
}

// handleHealthCheck also verifies the database is reachable.
func (s *server) handleHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, database, code := "healthy", "connected", http.StatusOK
	if err := s.app.Store.Ping(ctx); err != nil {
		s.log.Error("database ping failed", zap.Error(err))
		status, database, code = "unhealthy", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now(),
	})
}

// handleClientError records errors reported by the browser client.
func (s *server) handleClientError(c *gin.Context) {
	var report map[string]any
	if !bindJSON(c, &report) {
		return
	}
	field := func(key, fallback string) string {
		if v, ok := report[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return fallback
	}
	kind := field("type", "unknown")
	fields := []zap.Field{
		zap.String("type", kind),
		zap.String("message", field("message", "unknown error")),
		zap.String("url", field("url", "")),
	}

	log := s.log.Named("client")
	switch kind {
	case "uncaught-error":
		log.Error("uncaught client error", append(fields, zap.String("stack", field("stack", "")))...)
	case "unhandled-rejection":
		log.Error("unhandled promise rejection", fields...)
	default:
		log.Warn("client error", fields...)
	}
	c.Status(http.StatusOK)
}
