package models

import (
	"time"
)

type Click struct {
	ID         string    `gorm:"primaryKey;size:40" json:"id"`
	LinkID     string    `gorm:"not null;size:40;index" json:"link_id"`
	Timestamp  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
	URL        string    `gorm:"type:text" json:"url"` // resolved destination, after overrides
	IPAddress  string    `gorm:"size:45" json:"ip_address,omitempty"`
	Country    string    `gorm:"size:100;default:'Unknown'" json:"country"`
	City       string    `gorm:"size:100" json:"city"`
	Region     string    `gorm:"size:100" json:"region"`
	Browser    string    `gorm:"size:50" json:"browser"`
	OS         string    `gorm:"size:100" json:"os"`
	DeviceType string    `gorm:"size:50" json:"device_type"`
	Bot        bool      `gorm:"default:false" json:"bot"`
	UserAgent  string    `gorm:"size:255" json:"user_agent"` // raw UA, kept for worker-side enrichment
	Referrer   string    `gorm:"size:255;default:'Direct'" json:"referrer"`
	Trigger    string    `gorm:"size:20;default:'link'" json:"trigger"` // "link" or "qr"
}

func (Click) TableName() string {
	return "clicks"
}
