package models

import "time"

// AIUsageLog records one row per dispatch attempt (success or exhausted
// failure) for cost tracking and provider-reliability debugging. Rows are
// append-only: nothing in this service mutates or deletes them except the
// retention sweep.
type AIUsageLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	OrgID         string    `gorm:"size:64;index" json:"org_id"`
	PipelineStep  string    `gorm:"size:50;index" json:"pipeline_step"`
	ModelUsed     string    `gorm:"size:100" json:"model_used"`
	Provider      string    `gorm:"size:50" json:"provider"`
	PromptPreview string    `gorm:"size:200" json:"prompt_preview"` // truncated input, never the full payload
	Success       bool      `json:"success"`
	ErrorMessage  string    `gorm:"size:500" json:"error_message,omitempty"`
	Cost          float64   `json:"cost"`
	LatencyMs     int64     `json:"latency_ms"`
	TokensUsed    int       `json:"tokens_used,omitempty"`
	ResultRefs    string    `gorm:"size:2000" json:"result_refs,omitempty"` // JSON array of references
	ProjectID     string    `gorm:"size:64;index" json:"project_id,omitempty"`
	UserID        string    `gorm:"size:64" json:"user_id,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (AIUsageLog) TableName() string { return "ai_usage_logs" }
