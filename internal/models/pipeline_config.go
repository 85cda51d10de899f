package models

import "time"

// PipelineStepConfig maps a logical pipeline step to a primary model and an
// optional fallback model, per organization. Rows are seeded from the system
// defaults on first use and editable through the admin API afterwards.
type PipelineStepConfig struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrgID         string    `gorm:"size:64;not null;uniqueIndex:idx_org_step" json:"org_id"`
	PipelineStep  string    `gorm:"size:50;not null;uniqueIndex:idx_org_step" json:"pipeline_step"`
	StepLabel     string    `gorm:"size:100" json:"step_label"`
	PrimaryModel  string    `gorm:"size:100;not null" json:"primary_model"`
	FallbackModel string    `gorm:"size:100" json:"fallback_model"` // empty means no fallback
	APIProvider   string    `gorm:"size:50" json:"api_provider"`    // cached provider of the primary model
	CostPerCall   float64   `json:"cost_per_call"`                  // display only, never used for billing
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PipelineStepConfig) TableName() string { return "ai_pipeline_configs" }
