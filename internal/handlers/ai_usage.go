package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/services"
	"github.com/usawrapco/wrapforge/pkg/response"
	"gorm.io/gorm"
)

// AIUsageHandler provides endpoints for usage ledger statistics.
type AIUsageHandler struct {
	usageService *services.AIUsageService
	statsService *services.PipelineStatsService
}

func NewAIUsageHandler(db *gorm.DB) *AIUsageHandler {
	return &AIUsageHandler{
		usageService: services.NewAIUsageService(db),
		statsService: services.NewPipelineStatsService(db),
	}
}

func scope(c *gin.Context) (startDate, endDate, orgID string) {
	startDate = c.Query("start_date")
	endDate = c.Query("end_date")
	orgID = c.Query("org_id")
	if orgID == "" {
		orgID = c.GetHeader("X-Org-ID")
	}
	return
}

// GetStats returns aggregated usage statistics.
func (h *AIUsageHandler) GetStats(c *gin.Context) {
	startDate, endDate, orgID := scope(c)

	stats, err := h.usageService.GetStats(startDate, endDate, orgID)
	if err != nil {
		response.ServerError(c, "failed to get usage stats: "+err.Error())
		return
	}
	response.Success(c, stats)
}

// GetDailyTrend returns daily aggregated usage for charting.
func (h *AIUsageHandler) GetDailyTrend(c *gin.Context) {
	startDate, endDate, orgID := scope(c)

	trend, err := h.usageService.GetDailyTrend(startDate, endDate, orgID)
	if err != nil {
		response.ServerError(c, "failed to get usage trend: "+err.Error())
		return
	}
	response.Success(c, trend)
}

// GetStepBreakdown returns usage grouped by step and serving model.
func (h *AIUsageHandler) GetStepBreakdown(c *gin.Context) {
	startDate, endDate, orgID := scope(c)

	breakdown, err := h.usageService.GetStepBreakdown(startDate, endDate, orgID)
	if err != nil {
		response.ServerError(c, "failed to get step breakdown: "+err.Error())
		return
	}
	response.Success(c, breakdown)
}

// GetAggregates returns the incrementally-maintained per-step counters.
func (h *AIUsageHandler) GetAggregates(c *gin.Context) {
	orgID := c.Query("org_id")
	if orgID == "" {
		orgID = c.GetHeader("X-Org-ID")
	}
	if orgID == "" {
		response.BadRequest(c, "org_id is required")
		return
	}

	rows, err := h.statsService.ListForOrg(orgID)
	if err != nil {
		response.ServerError(c, "failed to get pipeline stats: "+err.Error())
		return
	}
	response.Success(c, rows)
}
