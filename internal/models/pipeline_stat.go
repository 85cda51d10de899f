package models

import "time"

// PipelineStat is the per-(org, step) aggregate counter row. It is a derived
// convenience updated best-effort; ai_usage_logs remains the source of truth.
type PipelineStat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrgID          string    `gorm:"size:64;not null;uniqueIndex:idx_stat_org_step" json:"org_id"`
	PipelineStep   string    `gorm:"size:50;not null;uniqueIndex:idx_stat_org_step" json:"pipeline_step"`
	Calls          int64     `json:"calls"`
	SuccessCount   int64     `json:"success_count"`
	FailureCount   int64     `json:"failure_count"`
	TotalCost      float64   `json:"total_cost"`
	TotalLatencyMs int64     `json:"total_latency_ms"`
	LastUsedAt     time.Time `json:"last_used_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PipelineStat) TableName() string { return "ai_pipeline_stats" }
