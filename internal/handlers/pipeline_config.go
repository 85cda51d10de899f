package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/registry"
	"github.com/usawrapco/wrapforge/internal/services"
	"github.com/usawrapco/wrapforge/pkg/response"
	"gorm.io/gorm"
)

// PipelineConfigHandler manages per-organization step configuration.
type PipelineConfigHandler struct {
	configService *services.PipelineConfigService
	registry      *registry.Registry
}

func NewPipelineConfigHandler(db *gorm.DB, reg *registry.Registry) *PipelineConfigHandler {
	return &PipelineConfigHandler{
		configService: services.NewPipelineConfigService(db),
		registry:      reg,
	}
}

// List returns the org's step configs, seeding the defaults on first use.
func (h *PipelineConfigHandler) List(c *gin.Context) {
	orgID := c.Param("org_id")

	if err := h.configService.SeedDefaults(c.Request.Context(), orgID); err != nil {
		response.ServerError(c, "failed to seed pipeline defaults: "+err.Error())
		return
	}

	rows, err := h.configService.ListForOrg(c.Request.Context(), orgID)
	if err != nil {
		response.ServerError(c, "failed to list pipeline configs: "+err.Error())
		return
	}
	response.Success(c, rows)
}

// UpdateStep changes the model pair for one step.
func (h *PipelineConfigHandler) UpdateStep(c *gin.Context) {
	orgID := c.Param("org_id")
	step := c.Param("step")

	var req services.UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	row, err := h.configService.UpdateStep(c.Request.Context(), h.registry, orgID, step, &req)
	switch err {
	case nil:
		response.Success(c, row)
	case services.ErrUnknownModel:
		response.BadRequest(c, "unknown model key")
	case services.ErrUnknownStep:
		response.NotFound(c, "unknown pipeline step: "+step)
	default:
		response.ServerError(c, "failed to update step config: "+err.Error())
	}
}

// Seed inserts the default configs for an org that has none.
func (h *PipelineConfigHandler) Seed(c *gin.Context) {
	orgID := c.Param("org_id")

	if err := h.configService.SeedDefaults(c.Request.Context(), orgID); err != nil {
		response.ServerError(c, "failed to seed pipeline defaults: "+err.Error())
		return
	}

	rows, err := h.configService.ListForOrg(c.Request.Context(), orgID)
	if err != nil {
		response.ServerError(c, "failed to list pipeline configs: "+err.Error())
		return
	}
	response.Created(c, rows)
}
