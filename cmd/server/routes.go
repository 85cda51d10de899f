package main

import (
	"github.com/gin-gonic/gin"
	"github.com/usawrapco/wrapforge/internal/middleware"
	"github.com/usawrapco/wrapforge/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Dispatches fan out to paid provider APIs, so they get a tighter
	// limit than the read-side endpoints.
	dispatchLimiter := middleware.NewRateLimiter(5, 10)

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api/v1")
	{
		api.POST("/dispatch", dispatchLimiter.Middleware(), svc.dispatchHandler.Dispatch)

		// Model catalog (read-only)
		api.GET("/models", svc.modelsHandler.List)
		api.GET("/models/:key", svc.modelsHandler.Get)

		// Per-org pipeline configuration
		orgs := api.Group("/orgs/:org_id")
		{
			orgs.GET("/pipeline", svc.configHandler.List)
			orgs.POST("/pipeline/seed", svc.configHandler.Seed)
			orgs.PUT("/pipeline/:step", svc.configHandler.UpdateStep)
		}

		// Usage ledger read side
		usage := api.Group("/usage")
		{
			usage.GET("/stats", svc.usageHandler.GetStats)
			usage.GET("/trend", svc.usageHandler.GetDailyTrend)
			usage.GET("/steps", svc.usageHandler.GetStepBreakdown)
			usage.GET("/aggregates", svc.usageHandler.GetAggregates)
		}
	}
}
