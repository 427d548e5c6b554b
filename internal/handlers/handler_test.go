package handlers

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dubinc/dub-sub007/internal/config"
	"github.com/dubinc/dub-sub007/internal/models"
	"github.com/dubinc/dub-sub007/internal/repository"
	"github.com/dubinc/dub-sub007/internal/resolver"
	"github.com/dubinc/dub-sub007/internal/services"
	"github.com/dubinc/dub-sub007/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testHome = "https://dub.co"

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Link{}, &models.Click{}, &models.AuditLog{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{
		HomeURL:       testHome,
		SessionSecret: "test-secret-12345678901234567890123456789012",
		APIKey:        "test-api-key",
	}

	linkStore := repository.NewLinkStore(db)
	linkCache := repository.NewLinkCache(nil) // no redis in tests: every lookup hits the store
	rsv := resolver.NewResolver(linkCache, linkStore, logger)

	guard := services.NewAbuseGuard(nil, logger,
		[]string{"dub.sh/try"}, []string{"spam-site.com"}, 10)
	engine := resolver.NewEngine(guard)

	geoIP := services.NewGeoIPService(cfg, logger)
	emitter := services.NewClickEmitter(repository.NewClickSink(db), logger, geoIP)
	audit := services.NewAuditService(db, logger)
	qr := services.NewQRService()

	h := NewHandler(cfg, logger, rsv, engine, emitter, geoIP, audit, qr, linkStore)
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil, "../../web/templates/*.html")
}

func seedLink(t *testing.T, db *gorm.DB, link models.Link) models.Link {
	t.Helper()
	if link.WorkspaceID == "" {
		link.WorkspaceID = "ws_test"
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}
	return link
}

func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	hash, err := utils.HashPassword(pw)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return hash
}

func clickCount(db *gorm.DB) int64 {
	var count int64
	db.Model(&models.Click{}).Count(&count)
	return count
}

func waitForClicks(t *testing.T, db *gorm.DB, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if clickCount(db) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clicks, got %d", want, clickCount(db))
}
