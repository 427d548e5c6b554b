package repository

import (
	"context"

	"github.com/dubinc/dub-sub007/internal/models"

	"gorm.io/gorm"
)

// ClickSink persists click events and bumps the link's denormalized counter.
// It only ever runs on the background worker, never on the response path.
type ClickSink struct {
	db *gorm.DB
}

func NewClickSink(db *gorm.DB) *ClickSink {
	return &ClickSink{db: db}
}

func (s *ClickSink) Record(ctx context.Context, click *models.Click) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.Link{}).
		Where("id = ?", click.LinkID).
		UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
}
