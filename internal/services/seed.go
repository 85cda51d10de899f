package services

import (
	"context"

	"github.com/usawrapco/wrapforge/internal/models"
	"github.com/usawrapco/wrapforge/internal/registry"
	"github.com/usawrapco/wrapforge/pkg/logger"
	"gorm.io/gorm"
)

// PipelineConfigService reads and seeds per-organization pipeline step
// configuration. Updates to existing rows come through the admin API; this
// service never overwrites a customized row.
type PipelineConfigService struct {
	db *gorm.DB
}

func NewPipelineConfigService(db *gorm.DB) *PipelineConfigService {
	return &PipelineConfigService{db: db}
}

// SeedDefaults inserts one config row per default pipeline step for an
// organization that has none yet. Idempotent: if any rows already exist the
// call is a no-op, and a concurrent first-use racing the insert is absorbed
// by the unique (org_id, pipeline_step) index.
func (s *PipelineConfigService) SeedDefaults(ctx context.Context, orgID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PipelineStepConfig{}).
		Where("org_id = ?", orgID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rows := make([]models.PipelineStepConfig, 0, len(registry.DefaultPipeline))
	for _, step := range registry.StepNames() {
		def := registry.DefaultPipeline[step]
		rows = append(rows, models.PipelineStepConfig{
			OrgID:         orgID,
			PipelineStep:  step,
			StepLabel:     def.Label,
			PrimaryModel:  def.PrimaryModel,
			FallbackModel: def.FallbackModel,
			APIProvider:   def.Provider,
			CostPerCall:   def.CostPerCall,
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		// Another first-use trigger won the race; the defaults are in place.
		var existing int64
		s.db.WithContext(ctx).Model(&models.PipelineStepConfig{}).
			Where("org_id = ?", orgID).Count(&existing)
		if existing > 0 {
			logger.Infof("[PipelineConfig] defaults for org %s already seeded concurrently", orgID)
			return nil
		}
		return err
	}

	logger.Infof("[PipelineConfig] seeded %d default steps for org %s", len(rows), orgID)
	return nil
}

// Get returns the config row for one (org, step), or nil when the org has
// not customized the step.
func (s *PipelineConfigService) Get(ctx context.Context, orgID, step string) (*models.PipelineStepConfig, error) {
	var row models.PipelineStepConfig
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND pipeline_step = ?", orgID, step).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListForOrg returns all config rows for an organization.
func (s *PipelineConfigService) ListForOrg(ctx context.Context, orgID string) ([]models.PipelineStepConfig, error) {
	var rows []models.PipelineStepConfig
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).Order("pipeline_step ASC").Find(&rows).Error
	return rows, err
}

// UpdateStepRequest carries an admin edit to one step config.
type UpdateStepRequest struct {
	PrimaryModel  string  `json:"primary_model" binding:"required"`
	FallbackModel string  `json:"fallback_model"`
	CostPerCall   float64 `json:"cost_per_call"`
}

// UpdateStep edits the model pair for one step. Both models must exist in
// the registry, and the cached provider column follows the primary model.
func (s *PipelineConfigService) UpdateStep(ctx context.Context, reg *registry.Registry, orgID, step string, req *UpdateStepRequest) (*models.PipelineStepConfig, error) {
	primary, ok := reg.Describe(req.PrimaryModel)
	if !ok {
		return nil, ErrUnknownModel
	}
	if req.FallbackModel != "" {
		if _, ok := reg.Describe(req.FallbackModel); !ok {
			return nil, ErrUnknownModel
		}
	}

	if err := s.SeedDefaults(ctx, orgID); err != nil {
		return nil, err
	}

	row, err := s.Get(ctx, orgID, step)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrUnknownStep
	}

	row.PrimaryModel = req.PrimaryModel
	row.FallbackModel = req.FallbackModel
	row.APIProvider = primary.Provider
	if req.CostPerCall > 0 {
		row.CostPerCall = req.CostPerCall
	}

	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
