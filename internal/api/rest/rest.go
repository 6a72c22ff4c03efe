package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes (read-only)
	v1 := router.Group("/api/v1")
	{
		// Run endpoints
		v1.GET("/runs/latest", handler.GetLatestRun)
		v1.GET("/runs/:id", handler.GetRun)
		v1.GET("/runs/:id/customers", handler.ListRunCustomers)
		v1.GET("/runs/:id/segments", handler.GetRunSegments)
		v1.GET("/runs/:id/cohorts", handler.GetRunCohorts)

		// Marketing playbook endpoints
		v1.GET("/recommendations", handler.ListRecommendations)
		v1.GET("/segments/:name/recommendation", handler.GetSegmentRecommendation)
	}
}
