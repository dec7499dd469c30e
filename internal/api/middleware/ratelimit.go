package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// clientLimiter stores the token bucket for a specific client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware applies a per-client token bucket to every request.
type RateLimiterMiddleware struct {
	clients    map[string]*clientLimiter
	mu         sync.Mutex
	refillRate int
	bucketSize int
	logger     *zap.Logger
}

// NewRateLimiterMiddleware creates a limiter allowing bursts of bucketSize requests,
// refilled at refillRate tokens per second. Idle clients are forgotten until ctx ends.
func NewRateLimiterMiddleware(ctx context.Context, logger *zap.Logger, bucketSize, refillRate int) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients:    make(map[string]*clientLimiter),
		refillRate: refillRate,
		bucketSize: bucketSize,
		logger:     logger,
	}
	go rm.cleanupClients(ctx, 10*time.Minute, 30*time.Minute)
	return rm
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rm.refillRate), rm.bucketSize)}
		rm.clients[identifier] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter
}

// cleanupClients periodically removes clients not seen within maxIdle.
func (rm *RateLimiterMiddleware) cleanupClients(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rm.evictIdle(maxIdle); n > 0 {
				rm.logger.Debug("rate limiter cleanup", zap.Int("removed", n))
			}
		}
	}
}

func (rm *RateLimiterMiddleware) evictIdle(maxIdle time.Duration) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if time.Since(client.lastSeen) > maxIdle {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if !rm.getClientLimiter(clientKey).limiter.Allow() {
			rm.logger.Warn("rate limit exceeded",
				zap.String("client", clientKey),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
