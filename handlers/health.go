package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by anything whose liveness can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// RegisterHealth exposes /health (process up) and /ready (every dependency
// answers a ping). deps maps a dependency name to its probe.
func RegisterHealth(r *gin.Engine, started time.Time, deps map[string]Pinger) {
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		status := map[string]bool{}
		for name, p := range deps {
			ok := p != nil && p.Ping(ctx) == nil
			status[name] = ok
			ready = ready && ok
		}
		code, state := http.StatusOK, "ready"
		if !ready {
			code, state = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(code, gin.H{"status": state, "deps": status, "uptime": time.Since(started).String()})
	})
}
