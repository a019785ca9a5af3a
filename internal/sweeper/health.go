package sweeper

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness, readiness (loop running and redis
// reachable) and the running sweep tally.
func (s *Sweeper) HealthHandler(redis Pinger) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/readyz", func(ctx *gin.Context) {
		if !s.isReady() {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if redis != nil {
			pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := redis.Ping(pingCtx); err != nil {
				ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis_unavailable"})
				return
			}
		}

		ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/stats", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, s.Stats())
	})

	return r
}
