package services

import (
	"context"
	"time"

	"github.com/usawrapco/wrapforge/internal/models"
	"gorm.io/gorm"
)

// PipelineStatsService maintains the per-(org, step) aggregate counters.
// Updates are applied as atomic increments in the UPDATE statement itself,
// never read-then-write in application code, so concurrent dispatches
// cannot lose counts.
type PipelineStatsService struct {
	db *gorm.DB
}

func NewPipelineStatsService(db *gorm.DB) *PipelineStatsService {
	return &PipelineStatsService{db: db}
}

// Apply folds one dispatch outcome into the aggregate row, creating the row
// on first use. A create racing another dispatch falls back to one more
// increment attempt.
func (s *PipelineStatsService) Apply(ctx context.Context, task *StatsTask) error {
	res := s.increment(ctx, task)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := models.PipelineStat{
		OrgID:        task.OrgID,
		PipelineStep: task.PipelineStep,
		LastUsedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Lost the creation race; the row exists now.
		if res := s.increment(ctx, task); res.Error != nil {
			return res.Error
		}
		return nil
	}

	res = s.increment(ctx, task)
	return res.Error
}

func (s *PipelineStatsService) increment(ctx context.Context, task *StatsTask) *gorm.DB {
	updates := map[string]interface{}{
		"calls":            gorm.Expr("calls + 1"),
		"total_cost":       gorm.Expr("total_cost + ?", task.Cost),
		"total_latency_ms": gorm.Expr("total_latency_ms + ?", task.LatencyMs),
		"last_used_at":     time.Now(),
	}
	if task.Success {
		updates["success_count"] = gorm.Expr("success_count + 1")
	} else {
		updates["failure_count"] = gorm.Expr("failure_count + 1")
	}

	return s.db.WithContext(ctx).Model(&models.PipelineStat{}).
		Where("org_id = ? AND pipeline_step = ?", task.OrgID, task.PipelineStep).
		Updates(updates)
}

// Get returns the aggregate row for one (org, step), or nil if the step has
// never been dispatched.
func (s *PipelineStatsService) Get(orgID, step string) (*models.PipelineStat, error) {
	var row models.PipelineStat
	err := s.db.Where("org_id = ? AND pipeline_step = ?", orgID, step).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListForOrg returns all aggregate rows for an organization.
func (s *PipelineStatsService) ListForOrg(orgID string) ([]models.PipelineStat, error) {
	var rows []models.PipelineStat
	err := s.db.Where("org_id = ?", orgID).Order("pipeline_step ASC").Find(&rows).Error
	return rows, err
}
