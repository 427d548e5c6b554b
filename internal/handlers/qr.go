package handlers

import (
	"net/http"
	"strconv"

	"github.com/dubinc/dub-sub007/internal/resolver"

	"github.com/gin-gonic/gin"
)

// ShowQR renders a QR code for an existing short link. The encoded URL
// carries qr=1 so scans are tagged with the "qr" trigger when they resolve.
func (h *Handler) ShowQR(c *gin.Context) {
	req, ok := resolver.Normalize(c.Request.Host, c.Param("key"))
	if !ok {
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}

	if link := h.resolver.Resolve(c.Request.Context(), req.Domain, req.Key); link == nil {
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}

	size := 256
	if s, err := strconv.Atoi(c.Query("size")); err == nil && s >= 64 && s <= 2048 {
		size = s
	}

	content := "https://" + req.Domain + "/" + req.Key + "?qr=1"
	data, err := h.qrService.Generate(content, size, c.Query("fg"), c.Query("bg"))
	if err != nil {
		h.logger.Error("QR generation failed", "domain", req.Domain, "key", req.Key, "error", err)
		c.String(http.StatusInternalServerError, "could not generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}
