package handlers

import (
	"net/http"

	"github.com/dubinc/dub-sub007/internal/resolver"
	"github.com/dubinc/dub-sub007/pkg/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type passwordForm struct {
	Password string `form:"password" binding:"required"`
}

// HandlePasswordForm processes the interstitial password prompt. On success
// the unlock is stored in the session and the browser is bounced back to the
// short link, which now resolves past the gate.
func (h *Handler) HandlePasswordForm(c *gin.Context) {
	req, ok := resolver.Normalize(c.Request.Host, c.Param("key"))
	if !ok {
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}

	link := h.resolver.Resolve(c.Request.Context(), req.Domain, req.Key)
	if link == nil || link.Password == "" {
		c.Redirect(http.StatusFound, "/"+req.Key)
		return
	}

	var form passwordForm
	if err := c.ShouldBind(&form); err != nil || !utils.CheckPasswordHash(form.Password, link.Password) {
		c.HTML(http.StatusOK, "password.html", gin.H{
			"Domain":   req.Domain,
			"Key":      req.Key,
			"ShortURL": "https://" + req.Domain + "/" + req.Key,
			"Error":    true,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("unlock:"+req.Domain+"/"+req.Key, true)
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to save unlock session", "error", err)
	}

	c.Redirect(http.StatusFound, "/"+req.Key)
}
