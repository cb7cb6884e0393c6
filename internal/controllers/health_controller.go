package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthController пробы для оркестратора и мониторинга.
type HealthController struct {
	conn        ConnectionChecker
	startedAt   time.Time
	environment string
	now         func() time.Time
}

func NewHealthController(conn ConnectionChecker, startedAt time.Time, environment string) *HealthController {
	return &HealthController{
		conn:        conn,
		startedAt:   startedAt,
		environment: environment,
		now:         time.Now,
	}
}

// Health обрабатывает GET /health.
//
// В случае успеха возвращает 200 со статусом "OK", временем работы и состоянием хранилища.
// Если хранилище недоступно - 503 "Service Unavailable".
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	now := c.now()
	body := gin.H{
		"uptime":      now.Sub(c.startedAt).Seconds(),
		"timestamp":   now.UTC().Format(time.RFC3339),
		"environment": c.environment,
	}
	if err := c.conn.CheckConnection(pingCtx); err != nil {
		_ = ctx.Error(fmt.Errorf("health check: %w", err))
		body["status"] = "Service Unavailable"
		body["database"] = gin.H{"status": "disconnected", "connected": false}
		body["error"] = "database unavailable"
		ctx.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "OK"
	body["database"] = gin.H{"status": "connected", "connected": true}
	ctx.JSON(http.StatusOK, body)
}

// Live обрабатывает GET /livez.
func (c *HealthController) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Ready обрабатывает GET /readyz: готов, если доступно хранилище.
func (c *HealthController) Ready(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), DefaultRequestTimeout)
	defer cancel()

	if err := c.conn.CheckConnection(pingCtx); err != nil {
		_ = ctx.Error(fmt.Errorf("readiness check: %w", err))
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
