package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"greendrake/po/internal/api/handlers"
	"greendrake/po/internal/api/middleware"
	"greendrake/po/internal/config"
	"greendrake/po/internal/notify"
	"greendrake/po/internal/services"
)

// SetupRouter configures the Gin engine serving the editing session.
func SetupRouter(ctx context.Context, cfg *config.Config, logger *zap.Logger, session services.ISessionService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, logger, cfg.RateLimitBucketSize, cfg.RateLimitRefillRate)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	poHandler := handlers.NewPurchaseOrderHandler(session, logger)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Working order
		v1.GET("/po", poHandler.GetWorkingOrder)
		v1.PATCH("/po", poHandler.PatchWorkingOrder)
		v1.POST("/po/new", poHandler.NewOrder)
		v1.POST("/po/save", poHandler.SaveOrder)
		v1.POST("/po/items", poHandler.AddItem)
		v1.PUT("/po/items/:index", poHandler.UpdateItem)
		v1.DELETE("/po/items/:index", poHandler.RemoveItem)

		// Saved orders
		v1.GET("/orders", poHandler.ListOrders)
		v1.POST("/orders/:poNumber/load", poHandler.LoadOrder)
		v1.DELETE("/orders/:poNumber", poHandler.DeleteOrder)
	}

	return r
}

// NotificationSource returns the notifications captured since the last call.
type NotificationSource func(ctx context.Context) ([]notify.Entry, error)

// RedisNotifications reads the entries a notify.RedisSink keeps and clears them.
func RedisNotifications(rdb *redis.Client) NotificationSource {
	return func(ctx context.Context) ([]notify.Entry, error) {
		entries, err := notify.ReadRedisEntries(ctx, rdb, notify.DefaultRedisKey)
		if err != nil {
			return nil, err
		}
		rdb.Del(ctx, notify.DefaultRedisKey)
		return entries, nil
	}
}

// RecorderNotifications drains an in-memory recorder.
func RecorderNotifications(rec *notify.Recorder) NotificationSource {
	return func(context.Context) ([]notify.Entry, error) {
		return rec.Drain(), nil
	}
}

// SetupServiceRouter configures the service Gin engine used by local tooling:
// it can stop the process and hand over the notifications emitted so far.
func SetupServiceRouter(logger *zap.Logger, source NotificationSource, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			logger.Info("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.Warn("shutdown channel already signaled")
			}
		case "getNotifications":
			entries, err := source(c.Request.Context())
			if err != nil {
				logger.Error("service API: failed to read notifications", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to read notifications"})
				return
			}
			if entries == nil {
				entries = []notify.Entry{}
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
