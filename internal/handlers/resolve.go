package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"
	"github.com/dubinc/dub-sub007/internal/resolver"
	"github.com/dubinc/dub-sub007/internal/services"
	"github.com/dubinc/dub-sub007/pkg/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// noTrackParam suppresses click recording when sent as a header or query
// parameter with value "1".
const noTrackParam = "dub-no-track"

// ShowRoot handles bare short-domain hits; there is no key to resolve, so the
// request falls through to the service home page.
func (h *Handler) ShowRoot(c *gin.Context) {
	c.Redirect(http.StatusFound, h.cfg.HomeURL)
}

// ResolveShortLink is the hot path: normalize, cache-aside lookup, one pass
// through the decision engine, then the terminal response. Click recording is
// handed off before the response is written and never awaited.
func (h *Handler) ResolveShortLink(c *gin.Context) {
	req, ok := resolver.Normalize(c.Request.Host, c.Param("key"))
	if !ok {
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
		return
	}

	ctx := c.Request.Context()
	link := h.resolver.Resolve(ctx, req.Domain, req.Key)
	device := services.ClassifyDevice(c.Request.UserAgent())

	in := resolver.Input{
		Domain:     req.Domain,
		Key:        req.Key,
		Link:       link,
		Inspect:    req.Inspect,
		PasswordOK: h.passwordOK(c, req, link),
		NoTrack:    c.GetHeader(noTrackParam) == "1" || c.Query(noTrackParam) == "1",
		Device:     device,
		Country:    h.geoIPService.CountryCode(c.ClientIP()),
		IP:         c.ClientIP(),
		Referrer:   c.Request.Referer(),
		Now:        time.Now(),
	}

	d := h.engine.Decide(ctx, in)
	h.logger.Debug("Resolved short link", "domain", req.Domain, "key", req.Key, "rule", d.Rule)

	if d.RecordClick {
		h.recordClick(c, link, d, device)
	}

	switch d.Action {
	case resolver.ActionRedirect:
		c.Redirect(http.StatusFound, d.Target)
	case resolver.ActionHome:
		c.Redirect(http.StatusFound, h.cfg.HomeURL)
	case resolver.ActionRateLimited:
		c.String(http.StatusTooManyRequests,
			"This demo link has hit its daily request limit. Please try again tomorrow.")
	case resolver.ActionProxy:
		h.serveProxy(c, d.Target)
	case resolver.ActionPage:
		h.renderPage(c, d, link, req)
	}
}

// passwordOK reports whether the request is authorized for a password-gated
// link: either the pw query parameter verifies, or a previous verification
// was remembered in the session. A successful pw check is stored so reloads
// and masked navigation do not re-prompt.
func (h *Handler) passwordOK(c *gin.Context, req resolver.Request, link *models.LinkRecord) bool {
	if link == nil || link.Password == "" {
		return false
	}

	session := sessions.Default(c)
	unlockKey := "unlock:" + req.Domain + "/" + req.Key
	if session.Get(unlockKey) != nil {
		return true
	}

	pw := c.Query("pw")
	if pw == "" || !utils.CheckPasswordHash(pw, link.Password) {
		return false
	}

	session.Set(unlockKey, true)
	if err := session.Save(); err != nil {
		h.logger.Warn("Failed to save unlock session", "error", err)
	}
	return true
}

func (h *Handler) recordClick(c *gin.Context, link *models.LinkRecord, d resolver.Decision, device resolver.Device) {
	dest := link.URL
	if d.Action == resolver.ActionRedirect {
		dest = d.Target
	}

	trigger := "link"
	if c.Query("qr") == "1" {
		trigger = "qr"
	}

	referrer := c.Request.Referer()
	if referrer == "" {
		referrer = "Direct"
	}

	h.emitter.Emit(models.Click{
		ID:        uuid.NewString(),
		LinkID:    link.ID,
		Timestamp: time.Now(),
		URL:       dest,
		IPAddress: c.ClientIP(),
		Browser:   device.Browser,
		OS:        device.OS,
		Bot:       device.Bot,
		UserAgent: c.Request.UserAgent(),
		Referrer:  referrer,
		Trigger:   trigger,
	})
}

func (h *Handler) renderPage(c *gin.Context, d resolver.Decision, link *models.LinkRecord, req resolver.Request) {
	data := gin.H{
		"Domain":   req.Domain,
		"Key":      req.Key,
		"ShortURL": "https://" + req.Domain + "/" + req.Key,
	}

	switch d.Page {
	case "inspect.html":
		data["Link"] = link
	case "password.html":
		data["Error"] = c.Query("pw") != ""
	case "rewrite.html", "deeplink.html":
		data["Target"] = d.Target
		if d.Page == "deeplink.html" {
			data["Fallback"] = link.URL
		}
	}
	// cloak.html deliberately receives no destination: the point is showing
	// crawlers a preview without leaking where the link goes.

	c.HTML(http.StatusOK, d.Page, data)
}

// serveProxy performs the non-iframe rewrite: the destination is fetched
// server-side and streamed back under the short link's own URL. Fetch
// failures degrade to a visible redirect rather than an error page.
func (h *Handler) serveProxy(c *gin.Context, target string) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		c.Redirect(http.StatusFound, target)
		return
	}
	req.Header.Set("User-Agent", c.Request.UserAgent())
	req.Header.Set("Accept", c.GetHeader("Accept"))

	resp, err := h.proxyClient.Do(req)
	if err != nil {
		h.logger.Warn("Rewrite fetch failed, falling back to redirect", "target", target, "error", err)
		c.Redirect(http.StatusFound, target)
		return
	}
	defer resp.Body.Close()

	c.Status(resp.StatusCode)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Header("Content-Type", ct)
	}
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.Warn("Rewrite stream interrupted", "target", target, "error", err)
	}
}
