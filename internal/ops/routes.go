package ops

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leo-o93/treinoai-acesso-seguro-sub001/internal/feed"
	"gorm.io/gorm"
)

// registerRoutes sets up the ops API routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, fm *feed.Manager) {
	router.GET("/api/health", handleHealth(db, fm))
	router.GET("/api/webhooks", handleWebhooks(db))
	router.GET("/api/deliveries", handleDeliveries(db))
	router.GET("/api/stream", handleStream(fm))
}

func handleHealth(db *gorm.DB, fm *feed.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbOK := false
		if sqlDB, err := db.DB(); err == nil {
			dbOK = sqlDB.Ping() == nil
		}
		feedOK := fm != nil && fm.Connected()

		status := http.StatusOK
		if !dbOK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"database": dbOK,
			"feed":     feedOK,
		})
	}
}

func handleWebhooks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var processed *bool
		if raw := c.Query("processed"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "processed must be true or false"})
				return
			}
			processed = &v
		}
		limit, _ := strconv.Atoi(c.Query("limit"))

		rows, err := RecentWebhookEvents(db, processed, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": rows})
	}
}

func handleDeliveries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))

		rows, err := RecentDeliveries(db, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deliveries": rows})
	}
}
