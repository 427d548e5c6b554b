package models

import (
	"encoding/json"
	"strings"
	"time"
)

// BannedWorkspaceID is the reserved owner sentinel for links taken down for abuse.
const BannedWorkspaceID = "ws_banned"

type Link struct {
	ID               string     `gorm:"primaryKey;size:40" json:"id"`
	Domain           string     `gorm:"not null;size:190;uniqueIndex:idx_domain_key" json:"domain"`
	Key              string     `gorm:"not null;size:190;uniqueIndex:idx_domain_key" json:"key"`
	URL              string     `gorm:"not null;type:text" json:"url"`
	PasswordHash     string     `gorm:"size:255" json:"-"`
	Proxy            bool       `gorm:"default:false" json:"proxy"`
	Rewrite          bool       `gorm:"default:false" json:"rewrite"`
	Iframeable       bool       `gorm:"default:true" json:"iframeable"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	IOSTargetURL     string     `gorm:"type:text" json:"ios_target_url,omitempty"`
	AndroidTargetURL string     `gorm:"type:text" json:"android_target_url,omitempty"`
	GeoTargets       string     `gorm:"type:text" json:"geo_targets,omitempty"` // JSON: ISO country -> URL
	WorkspaceID      string     `gorm:"not null;size:40;index" json:"workspace_id"`
	ClicksCount      int        `gorm:"column:clicks;default:0" json:"clicks_count"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"clicks,omitempty"`
}

func (Link) TableName() string {
	return "links"
}

// LinkRecord is the denormalized projection of a Link kept in the cache and
// consumed by the redirect decision engine. The geo map is parsed once here,
// at hydration time, so the engine never touches raw JSON.
type LinkRecord struct {
	ID          string            `json:"id"`
	Domain      string            `json:"domain"`
	Key         string            `json:"key"`
	URL         string            `json:"url"`
	Password    string            `json:"password,omitempty"` // bcrypt hash
	Proxy       bool              `json:"proxy,omitempty"`
	Rewrite     bool              `json:"rewrite,omitempty"`
	Iframeable  bool              `json:"iframeable,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	IOS         string            `json:"ios,omitempty"`
	Android     string            `json:"android,omitempty"`
	Geo         map[string]string `json:"geo,omitempty"`
	WorkspaceID string            `json:"workspace_id"`
}

// ToRecord builds the cached projection from the stored row.
func (l *Link) ToRecord() *LinkRecord {
	rec := &LinkRecord{
		ID:          l.ID,
		Domain:      strings.ToLower(l.Domain),
		Key:         strings.ToLower(l.Key),
		URL:         l.URL,
		Password:    l.PasswordHash,
		Proxy:       l.Proxy,
		Rewrite:     l.Rewrite,
		Iframeable:  l.Iframeable,
		ExpiresAt:   l.ExpiresAt,
		IOS:         l.IOSTargetURL,
		Android:     l.AndroidTargetURL,
		WorkspaceID: l.WorkspaceID,
	}
	if l.GeoTargets != "" {
		var geo map[string]string
		if err := json.Unmarshal([]byte(l.GeoTargets), &geo); err == nil && len(geo) > 0 {
			rec.Geo = make(map[string]string, len(geo))
			for country, target := range geo {
				rec.Geo[strings.ToUpper(country)] = target
			}
		}
	}
	return rec
}

func (r *LinkRecord) Banned() bool {
	return r.WorkspaceID == BannedWorkspaceID
}

func (r *LinkRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
