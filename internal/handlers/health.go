package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/models"
	"github.com/usawrapco/wrapforge/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var dispatches24h int64
	models.GetDB().Model(&models.AIUsageLog{}).
		Where("created_at >= ?", time.Now().Add(-24*time.Hour)).
		Count(&dispatches24h)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "wrapforge",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"dispatches_24h": dispatches24h,
		},
	})
}
