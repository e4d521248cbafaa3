package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthCheck returns the health status of the service
// @Summary Health check
// @Description Returns the health status of the catalog service
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "catalog-service",
		"version": "1.0.0",
	})
}

// ReadinessCheck reports ready once the database answers. Redis is optional
// and only reported.
func ReadinessCheck(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		status := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}

		if redisClient == nil {
			checks["redis"] = "disabled"
		} else if err := redisClient.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}

		ready := "ready"
		if status != http.StatusOK {
			ready = "not_ready"
		}
		c.JSON(status, gin.H{"status": ready, "checks": checks})
	}
}
