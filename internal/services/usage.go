package services

import (
	"context"
	"time"

	"github.com/usawrapco/wrapforge/internal/models"
	"gorm.io/gorm"
)

// AIUsageService owns the usage ledger: one durable row per dispatch
// attempt plus the read-side queries for dashboards.
type AIUsageService struct {
	db *gorm.DB
}

func NewAIUsageService(db *gorm.DB) *AIUsageService {
	return &AIUsageService{db: db}
}

// Record appends one ledger row. The write is synchronous: a dispatch is
// not finished until its audit row is durable, and a failure here must be
// surfaced to the caller distinctly from the dispatch outcome.
func (s *AIUsageService) Record(ctx context.Context, row *models.AIUsageLog) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// UsageStats holds aggregated usage figures for a time range.
type UsageStats struct {
	TotalCalls   int64   `json:"total_calls"`
	TotalCost    float64 `json:"total_cost"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
	SuccessCount int64   `json:"success_count"`
	FailureCount int64   `json:"failure_count"`
}

// GetStats returns aggregated usage statistics for the given time range,
// optionally scoped to one organization.
func (s *AIUsageService) GetStats(startDate, endDate, orgID string) (*UsageStats, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var stats UsageStats
	err := query.Select(
		"COUNT(*) as total_calls, " +
			"COALESCE(SUM(cost), 0) as total_cost, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) as failure_count",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.TotalCalls) * 100
	}
	return &stats, nil
}

// DailyUsage holds usage data for a single day.
type DailyUsage struct {
	Date         string  `json:"date"`
	Calls        int     `json:"calls"`
	TotalCost    float64 `json:"total_cost"`
	AvgLatencyMs int     `json:"avg_latency_ms"`
}

// GetDailyTrend returns daily aggregated usage for charting.
func (s *AIUsageService) GetDailyTrend(startDate, endDate, orgID string) ([]DailyUsage, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var results []DailyUsage
	err := query.Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(cost), 0) as total_cost, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms",
	).Group("DATE(created_at)").Order("date ASC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []DailyUsage{}
	}
	return results, nil
}

// StepUsage holds usage data grouped by pipeline step and model.
type StepUsage struct {
	PipelineStep string  `json:"pipeline_step"`
	ModelUsed    string  `json:"model_used"`
	Provider     string  `json:"provider"`
	Calls        int     `json:"calls"`
	TotalCost    float64 `json:"total_cost"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
	SuccessRate  float64 `json:"success_rate"`
}

// GetStepBreakdown returns usage grouped by step and the model that
// actually served it. Because rows record the model used, fallback traffic
// shows up under the fallback model here.
func (s *AIUsageService) GetStepBreakdown(startDate, endDate, orgID string) ([]StepUsage, error) {
	query := s.db.Model(&models.AIUsageLog{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}

	var results []StepUsage
	err := query.Select(
		"pipeline_step, model_used, provider, " +
			"COUNT(*) as calls, " +
			"COALESCE(SUM(cost), 0) as total_cost, " +
			"COALESCE(AVG(latency_ms), 0) as avg_latency_ms, " +
			"COALESCE(AVG(CASE WHEN success THEN 100.0 ELSE 0.0 END), 0) as success_rate",
	).Group("pipeline_step, model_used, provider").Order("calls DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []StepUsage{}
	}
	return results, nil
}

// CleanupBefore deletes usage logs older than the given time. Called by the
// retention sweep only; nothing else deletes ledger rows.
func (s *AIUsageService) CleanupBefore(before time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", before).Delete(&models.AIUsageLog{})
	return result.RowsAffected, result.Error
}
