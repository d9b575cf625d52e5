package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peopledb/peopledb/internal/tokens"
	"github.com/peopledb/peopledb/pkg/logger"
)

// RegisterRevoke exposes POST /api/auth/revoke, which withdraws the caller's
// own bearer token until it would have expired. guard must verify the token
// and set "claims".
func RegisterRevoke(r *gin.Engine, rev *tokens.Revocations, guard gin.HandlerFunc) {
	r.POST("/api/auth/revoke", guard, func(c *gin.Context) {
		raw, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		v, ok := c.Get("claims")
		claims, _ := v.(map[string]interface{})
		if !ok || claims == nil || raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bearer token required"})
			return
		}
		if err := rev.Revoke(c.Request.Context(), raw, tokens.RemainingTTL(claims, time.Now())); err != nil {
			logger.Errorf("revoke token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "revocation store unavailable"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
