package handlers

import (
	"net/http"

	"manualdesk/internal/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health pings the database. 503 while it is unreachable.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log := logger.With("health")
			log.Warn().Err(err).Msg("database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
