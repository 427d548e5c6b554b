package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"
	"github.com/dubinc/dub-sub007/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// The internal link API is how the owning system keeps the cache coherent:
// every write here ends with an explicit invalidation of the cached entry.
// The resolution engine itself never writes authoritative link state.

type linkPayload struct {
	ID          string            `json:"id"`
	Domain      string            `json:"domain" binding:"required"`
	Key         string            `json:"key"`
	URL         string            `json:"url" binding:"required,url"`
	Password    string            `json:"password"`
	Proxy       bool              `json:"proxy"`
	Rewrite     bool              `json:"rewrite"`
	Iframeable  *bool             `json:"iframeable"`
	ExpiresAt   *time.Time        `json:"expires_at"`
	IOS         string            `json:"ios"`
	Android     string            `json:"android"`
	Geo         map[string]string `json:"geo"`
	WorkspaceID string            `json:"workspace_id" binding:"required"`
}

func (h *Handler) UpsertLink(c *gin.Context) {
	var payload linkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link := models.Link{
		ID:               payload.ID,
		Domain:           strings.ToLower(payload.Domain),
		Key:              strings.ToLower(payload.Key),
		URL:              payload.URL,
		Proxy:            payload.Proxy,
		Rewrite:          payload.Rewrite,
		Iframeable:       payload.Iframeable == nil || *payload.Iframeable,
		ExpiresAt:        payload.ExpiresAt,
		IOSTargetURL:     payload.IOS,
		AndroidTargetURL: payload.Android,
		WorkspaceID:      payload.WorkspaceID,
		UpdatedAt:        time.Now(),
	}
	if link.ID == "" {
		link.ID = "link_" + uuid.NewString()
	}
	if link.Key == "" {
		link.Key = utils.GenerateKey(7)
	}
	if payload.Password != "" {
		hash, err := utils.HashPassword(payload.Password)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
			return
		}
		link.PasswordHash = hash
	}
	if len(payload.Geo) > 0 {
		data, err := json.Marshal(payload.Geo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid geo targets"})
			return
		}
		link.GeoTargets = string(data)
	}

	ctx := c.Request.Context()
	if err := h.linkStore.Upsert(ctx, &link); err != nil {
		h.logger.Error("Link upsert failed", "domain", link.Domain, "key", link.Key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save link"})
		return
	}

	if err := h.resolver.Invalidate(ctx, link.Domain, link.Key); err != nil {
		h.logger.Warn("Cache invalidation failed after upsert", "domain", link.Domain, "key", link.Key, "error", err)
	}

	h.auditService.LogAction("UPSERT_LINK", link.Domain+"/"+link.Key, gin.H{"url": link.URL}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{
		"id":     link.ID,
		"domain": link.Domain,
		"key":    link.Key,
		"url":    link.URL,
	})
}

func (h *Handler) DeleteLink(c *gin.Context) {
	domain := strings.ToLower(c.Query("domain"))
	key := strings.ToLower(c.Query("key"))
	if domain == "" || key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "domain and key are required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.linkStore.Delete(ctx, domain, key); err != nil {
		h.logger.Error("Link delete failed", "domain", domain, "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete link"})
		return
	}

	if err := h.resolver.Invalidate(ctx, domain, key); err != nil {
		h.logger.Warn("Cache invalidation failed after delete", "domain", domain, "key", key, "error", err)
	}

	h.auditService.LogAction("DELETE_LINK", domain+"/"+key, nil, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) InvalidateLink(c *gin.Context) {
	var payload struct {
		Domain string `json:"domain" binding:"required"`
		Key    string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	domain := strings.ToLower(payload.Domain)
	key := strings.ToLower(payload.Key)
	if err := h.resolver.Invalidate(c.Request.Context(), domain, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not invalidate cache entry"})
		return
	}

	h.auditService.LogAction("INVALIDATE_CACHE", domain+"/"+key, nil, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}
