package controller

import (
	"log/slog"
	"net/http"

	"utility-works/internal/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP routes
func NewRouter(entries *EntryController, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.StructuredLoggingMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler)

	v1 := r.Group("/v1")
	{
		years := v1.Group("/years")
		{
			years.GET("", entries.ListReportYears)
			years.GET("/:year", entries.GetYearOverview)
			years.GET("/:year/entries", entries.ListYearEntries)
			years.GET("/:year/months/:month/entries", entries.ListMonthEntries)
			years.GET("/:year/aggregates/:category", entries.ListAggregates)
		}

		e := v1.Group("/entries")
		{
			e.POST("", entries.CreateEntry)
			e.GET("/:id", entries.GetEntry)
			e.PUT("/:id", entries.UpdateEntry)
			e.DELETE("/:id", entries.DeleteEntry)
		}
	}
	return r
}
