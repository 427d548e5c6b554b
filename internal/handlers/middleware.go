package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/dubinc/dub-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards the internal link-management API. The key lives in
// config; an empty configured key disables the API entirely.
func (h *Handler) APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.APIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal API disabled"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.cfg.APIKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (h *Handler) RateLimitMiddleware(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
