package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dubinc/dub-sub007/internal/config"
	"github.com/dubinc/dub-sub007/internal/models"
	"github.com/dubinc/dub-sub007/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Link{}, &models.Click{}, &models.AuditLog{}))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestClickEmitter_EmitAndRecord(t *testing.T) {
	db := setupTestDB(t)
	logger := testLogger()
	geoIP := NewGeoIPService(config.Config{}, logger)
	emitter := NewClickEmitter(repository.NewClickSink(db), logger, geoIP)

	link := models.Link{ID: "link_1", Domain: "dub.sh", Key: "try", URL: "https://example.com", WorkspaceID: "ws_1"}
	assert.NoError(t, db.Create(&link).Error)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emitter.Start(ctx)

	emitter.Emit(models.Click{
		ID:        "click_1",
		LinkID:    "link_1",
		Timestamp: time.Now(),
		URL:       "https://example.com",
		IPAddress: "1.2.3.4",
		UserAgent: uaDesktop,
		Browser:   "Chrome",
		OS:        "windows",
		Trigger:   "link",
	})

	// Wait for the worker to drain the channel.
	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&models.Click{}).Count(&count)
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	var click models.Click
	assert.NoError(t, db.First(&click, "id = ?", "click_1").Error)
	assert.Equal(t, "1.2.3.0", click.IPAddress, "IP must be masked before persistence")
	assert.Equal(t, "Desktop", click.DeviceType)

	var got models.Link
	assert.NoError(t, db.First(&got, "id = ?", "link_1").Error)
	assert.Equal(t, 1, got.ClicksCount)
}

func TestClickEmitter_FullChannelDrops(t *testing.T) {
	logger := testLogger()
	geoIP := NewGeoIPService(config.Config{}, logger)
	emitter := NewClickEmitter(nil, logger, geoIP)
	emitter.clickChannel = make(chan models.Click, 1)

	// Worker not started: the second emit must not block.
	done := make(chan struct{})
	go func() {
		emitter.Emit(models.Click{ID: "a"})
		emitter.Emit(models.Click{ID: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full channel")
	}
	assert.Len(t, emitter.clickChannel, 1)
}

func TestMaskIP(t *testing.T) {
	assert.Equal(t, "192.168.1.0", maskIP("192.168.1.55"))
	assert.Equal(t, "IPv6 (Masked)", maskIP("2001:0db8:85a3:0000:0000:8a2e:0370:7334"))
	assert.Equal(t, "127.0.0.0", maskIP("127.0.0.1"))
	assert.Equal(t, "localhost", maskIP("localhost"))
}
