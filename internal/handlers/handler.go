package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dubinc/dub-sub007/internal/config"
	"github.com/dubinc/dub-sub007/internal/repository"
	"github.com/dubinc/dub-sub007/internal/resolver"
	"github.com/dubinc/dub-sub007/internal/services"
)

type Handler struct {
	cfg          config.Config
	logger       *slog.Logger
	resolver     *resolver.Resolver
	engine       *resolver.Engine
	emitter      *services.ClickEmitter
	geoIPService *services.GeoIPService
	auditService *services.AuditService
	qrService    *services.QRService
	linkStore    *repository.LinkStore
	proxyClient  *http.Client
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	rsv *resolver.Resolver,
	engine *resolver.Engine,
	emitter *services.ClickEmitter,
	geoIPService *services.GeoIPService,
	auditService *services.AuditService,
	qrService *services.QRService,
	linkStore *repository.LinkStore,
) *Handler {
	return &Handler{
		cfg:          cfg,
		logger:       logger,
		resolver:     rsv,
		engine:       engine,
		emitter:      emitter,
		geoIPService: geoIPService,
		auditService: auditService,
		qrService:    qrService,
		linkStore:    linkStore,
		proxyClient:  &http.Client{Timeout: 10 * time.Second},
	}
}
