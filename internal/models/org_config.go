package models

import "time"

// OrgConfig holds per-organization key/value settings, including provider
// credentials a tenant supplies when no platform-level key is configured.
type OrgConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrgID     string    `gorm:"size:64;not null;uniqueIndex:idx_org_key" json:"org_id"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_org_key" json:"key"`
	Value     string    `gorm:"size:500" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrgConfig) TableName() string { return "org_configs" }
