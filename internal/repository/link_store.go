package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/dubinc/dub-sub007/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LinkStore is the gorm-backed source of truth for links. The resolution path
// only ever reads from it; writes come through the internal management API.
type LinkStore struct {
	db *gorm.DB
}

func NewLinkStore(db *gorm.DB) *LinkStore {
	return &LinkStore{db: db}
}

// GetLink returns the cached projection for (domain, key), or nil when no such
// link exists. Keys are stored lower-cased, so callers pass normalized input.
func (s *LinkStore) GetLink(ctx context.Context, domain, key string) (*models.LinkRecord, error) {
	var link models.Link
	err := s.db.WithContext(ctx).
		Where("domain = ? AND key = ?", strings.ToLower(domain), strings.ToLower(key)).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return link.ToRecord(), nil
}

// Upsert creates or replaces a link row keyed by (domain, key).
func (s *LinkStore) Upsert(ctx context.Context, link *models.Link) error {
	link.Domain = strings.ToLower(link.Domain)
	link.Key = strings.ToLower(link.Key)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"url", "password_hash", "proxy", "rewrite", "iframeable",
			"expires_at", "ios_target_url", "android_target_url",
			"geo_targets", "workspace_id", "updated_at",
		}),
	}).Create(link).Error
}

func (s *LinkStore) Delete(ctx context.Context, domain, key string) error {
	return s.db.WithContext(ctx).
		Where("domain = ? AND key = ?", strings.ToLower(domain), strings.ToLower(key)).
		Delete(&models.Link{}).Error
}
