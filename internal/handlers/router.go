package handlers

import (
	"github.com/dubinc/dub-sub007/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter, templatePath string) *gin.Engine {
	r := gin.Default()

	if templatePath != "" {
		r.LoadHTMLGlob(templatePath)
	}

	// Middleware
	if rateLimiter != nil {
		r.Use(h.RateLimitMiddleware(rateLimiter))
	}

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	r.Use(sessions.Sessions("dub_session", store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Internal management API, used by the owning system to keep the cache
	// coherent with link edits.
	api := r.Group("/api", h.APIKeyAuth())
	{
		api.PUT("/links", h.UpsertLink)
		api.DELETE("/links", h.DeleteLink)
		api.POST("/links/invalidate", h.InvalidateLink)
	}

	// Resolution surface
	r.GET("/", h.ShowRoot)
	r.GET("/:key", h.ResolveShortLink)
	r.POST("/:key", h.HandlePasswordForm)
	r.GET("/:key/qr", h.ShowQR)

	return r
}
