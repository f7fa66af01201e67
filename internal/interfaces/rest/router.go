package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/backoffice/internal/application/services"
	"github.com/nexuscrm/backoffice/internal/infrastructure/metrics"
	"github.com/nexuscrm/backoffice/internal/interfaces/middleware"
	"github.com/nexuscrm/backoffice/pkg/auth"
)

// SetupRoutes registers every endpoint on router
func SetupRoutes(router *gin.Engine, svc *services.ServiceManager, tokens *auth.TokenManager, limiter *middleware.RateLimiter) {
	router.Use(metrics.GinMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"modules": svc.Configs.Modules(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	configHandler := NewConfigHandler(svc)
	listHandler := NewListHandler(svc)
	recordHandler := NewRecordHandler(svc)

	requireAuth := middleware.RequireAuth(tokens)
	requireAdmin := middleware.RequireAdmin()
	rateLimit := limiter.Handler()

	api := router.Group("/api")
	api.Use(requireAuth)
	{
		api.GET("/modules", configHandler.GetModules)

		module := api.Group("/modules/:module")
		{
			// Configuration (reads for everyone, changes for admins)
			module.GET("/config", configHandler.GetConfig)
			module.POST("/config/reset", requireAdmin, configHandler.ResetConfig)
			module.GET("/fields", configHandler.GetFields)
			module.POST("/fields", requireAdmin, configHandler.AddField)
			module.PUT("/fields/order", requireAdmin, configHandler.ReorderFields)
			module.PATCH("/fields/:fieldId", requireAdmin, configHandler.UpdateField)
			module.DELETE("/fields/:fieldId", requireAdmin, configHandler.DeleteField)
			module.PUT("/fields/:fieldId/active", requireAdmin, configHandler.SetFieldActive)
			module.PUT("/grid/order", requireAdmin, configHandler.ReorderGridColumns)
			module.PATCH("/grid", requireAdmin, configHandler.UpdateGrid)
			module.PUT("/layout", requireAdmin, configHandler.SaveLayout)

			// Lists
			module.POST("/list", rateLimit, listHandler.QueryList)
			module.POST("/export", rateLimit, listHandler.Export)
			module.GET("/columns", listHandler.GetColumns)
			module.PUT("/columns", listHandler.SaveColumns)

			// Records and forms
			module.GET("/form", recordHandler.GetForm)
			module.GET("/records", recordHandler.ListRecords)
			module.POST("/records", recordHandler.CreateRecord)
			module.POST("/records/bulk-delete", recordHandler.BulkDelete)
			module.GET("/records/:id", recordHandler.GetRecord)
			module.PUT("/records/:id", recordHandler.UpdateRecord)
			module.DELETE("/records/:id", recordHandler.DeleteRecord)
		}
	}
}
