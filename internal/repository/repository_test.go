package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dubinc/dub-sub007/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
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

func TestInitRedis_Fail(t *testing.T) {
	client, err := InitRedis("localhost:1", "", 0)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestLinkStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewLinkStore(db)
	ctx := context.Background()

	t.Run("GetLink Miss", func(t *testing.T) {
		rec, err := store.GetLink(ctx, "dub.sh", "nope")
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("Upsert And Get Case-Insensitive", func(t *testing.T) {
		err := store.Upsert(ctx, &models.Link{
			ID:          "link_1",
			Domain:      "Dub.sh",
			Key:         "TRY",
			URL:         "https://example.com",
			WorkspaceID: "ws_1",
		})
		assert.NoError(t, err)

		rec, err := store.GetLink(ctx, "dub.sh", "try")
		assert.NoError(t, err)
		assert.NotNil(t, rec)
		assert.Equal(t, "https://example.com", rec.URL)

		rec, err = store.GetLink(ctx, "DUB.SH", "TrY")
		assert.NoError(t, err)
		assert.NotNil(t, rec)
	})

	t.Run("Upsert Replaces Destination", func(t *testing.T) {
		err := store.Upsert(ctx, &models.Link{
			ID:          "link_1",
			Domain:      "dub.sh",
			Key:         "try",
			URL:         "https://example.org",
			WorkspaceID: "ws_1",
			UpdatedAt:   time.Now(),
		})
		assert.NoError(t, err)

		rec, err := store.GetLink(ctx, "dub.sh", "try")
		assert.NoError(t, err)
		assert.Equal(t, "https://example.org", rec.URL)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "dub.sh", "try"))

		rec, err := store.GetLink(ctx, "dub.sh", "try")
		assert.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestLinkCache_NilClient(t *testing.T) {
	cache := NewLinkCache(nil)
	ctx := context.Background()

	rec, err := cache.Get(ctx, "dub.sh", "try")
	assert.NoError(t, err)
	assert.Nil(t, rec)

	assert.NoError(t, cache.Set(ctx, "dub.sh", "try", &models.LinkRecord{ID: "x"}))
	assert.NoError(t, cache.Delete(ctx, "dub.sh", "try"))
}

func TestLinkCache_Unreachable(t *testing.T) {
	// A dummy client that cannot connect should surface an error, which the
	// resolver treats as a miss.
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:1", MaxRetries: -1})
	cache := NewLinkCache(rdb)

	_, err := cache.Get(context.Background(), "dub.sh", "try")
	assert.Error(t, err)
}

func TestClickSink_Record(t *testing.T) {
	db := setupTestDB(t)
	sink := NewClickSink(db)
	ctx := context.Background()

	link := models.Link{ID: "link_c", Domain: "dub.sh", Key: "c", URL: "https://example.com", WorkspaceID: "ws_1"}
	assert.NoError(t, db.Create(&link).Error)

	err := sink.Record(ctx, &models.Click{
		ID:        "click_1",
		LinkID:    "link_c",
		Timestamp: time.Now(),
		URL:       "https://example.com",
	})
	assert.NoError(t, err)

	var got models.Link
	assert.NoError(t, db.First(&got, "id = ?", "link_c").Error)
	assert.Equal(t, 1, got.ClicksCount)

	var count int64
	db.Model(&models.Click{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
