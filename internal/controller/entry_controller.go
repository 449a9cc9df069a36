package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"utility-works/internal/model"
	"utility-works/internal/repository"
	"utility-works/internal/service"

	"github.com/gin-gonic/gin"
)

// EntryController handles work entry and report HTTP requests
type EntryController struct {
	entryService service.EntryService
	logger       *slog.Logger
}

// NewEntryController creates a new entry controller
func NewEntryController(entryService service.EntryService, logger *slog.Logger) *EntryController {
	return &EntryController{
		entryService: entryService,
		logger:       logger,
	}
}

// ListReportYears handles GET /v1/years
func (c *EntryController) ListReportYears(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"years": c.entryService.ReportYears()})
}

// GetYearOverview handles GET /v1/years/{year}
func (c *EntryController) GetYearOverview(ctx *gin.Context) {
	startTime := time.Now()
	year, ok := c.parseYear(ctx)
	if !ok {
		return
	}

	overview, err := c.entryService.YearOverview(ctx.Request.Context(), year)
	if err != nil {
		c.respondError(ctx, err, "failed to retrieve year overview", startTime, "year", year)
		return
	}

	ctx.JSON(http.StatusOK, overview)
}

// ListYearEntries handles GET /v1/years/{year}/entries
// Query parameters:
//   - category (optional): water or sewerage
func (c *EntryController) ListYearEntries(ctx *gin.Context) {
	startTime := time.Now()
	year, ok := c.parseYear(ctx)
	if !ok {
		return
	}

	filter := repository.EntryFilter{Year: year}
	if categoryStr := ctx.Query("category"); categoryStr != "" {
		category, err := model.ParseCategory(categoryStr)
		if err != nil {
			c.logger.Warn("invalid category",
				"category", categoryStr,
				"error", err.Error(),
			)
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid category",
				"message": "category must be one of: water, sewerage",
			})
			return
		}
		filter.Category = category
	}

	entries, err := c.entryService.ListEntries(ctx.Request.Context(), filter)
	if err != nil {
		c.respondError(ctx, err, "failed to list entries", startTime, "year", year)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"year":    year,
		"entries": entries,
	})
}

// ListMonthEntries handles GET /v1/years/{year}/months/{month}/entries
func (c *EntryController) ListMonthEntries(ctx *gin.Context) {
	startTime := time.Now()
	year, ok := c.parseYear(ctx)
	if !ok {
		return
	}

	monthStr := ctx.Param("month")
	month, err := strconv.Atoi(monthStr)
	if err != nil || !model.ValidMonth(month) {
		c.logger.Warn("invalid month",
			"month", monthStr,
			"year", year,
		)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid month",
			"message": "month must be an integer between 1 and 12",
		})
		return
	}

	entries, err := c.entryService.ListEntries(ctx.Request.Context(), repository.EntryFilter{Year: year, Month: month})
	if err != nil {
		c.respondError(ctx, err, "failed to list month entries", startTime, "year", year, "month", month)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"year":       year,
		"month":      month,
		"month_name": model.MonthName(month),
		"entries":    entries,
	})
}

// ListAggregates handles GET /v1/years/{year}/aggregates/{category}
func (c *EntryController) ListAggregates(ctx *gin.Context) {
	startTime := time.Now()
	year, ok := c.parseYear(ctx)
	if !ok {
		return
	}

	categoryStr := ctx.Param("category")
	category, err := model.ParseCategory(categoryStr)
	if err != nil {
		c.logger.Warn("invalid category",
			"category", categoryStr,
			"year", year,
			"error", err.Error(),
		)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid category",
			"message": "category must be one of: water, sewerage",
		})
		return
	}

	rows, err := c.entryService.ListAggregates(ctx.Request.Context(), category, year)
	if err != nil {
		c.respondError(ctx, err, "failed to list aggregates", startTime, "year", year, "category", category.String())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"year":       year,
		"category":   category,
		"aggregates": rows,
	})
}

// GetEntry handles GET /v1/entries/{id}
func (c *EntryController) GetEntry(ctx *gin.Context) {
	startTime := time.Now()
	id, ok := c.parseEntryID(ctx)
	if !ok {
		return
	}

	entry, err := c.entryService.GetEntry(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err, "failed to retrieve entry", startTime, "entry_id", id)
		return
	}

	ctx.JSON(http.StatusOK, entry)
}

// CreateEntry handles POST /v1/entries
func (c *EntryController) CreateEntry(ctx *gin.Context) {
	startTime := time.Now()
	input, ok := c.bindInput(ctx)
	if !ok {
		return
	}

	result, err := c.entryService.CreateEntry(ctx.Request.Context(), input)
	if err != nil {
		c.respondError(ctx, err, "failed to create entry", startTime,
			"category", input.Category.String(),
			"year", input.Year,
			"month", input.Month,
		)
		return
	}

	c.logger.Info("entry created",
		"entry_id", result.Entry.ID,
		"bucket", result.Entry.Bucket().String(),
		"month", result.Entry.Month,
		"aggregate_id", result.Aggregate.ID,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusCreated, result)
}

// UpdateEntry handles PUT /v1/entries/{id}
func (c *EntryController) UpdateEntry(ctx *gin.Context) {
	startTime := time.Now()
	id, ok := c.parseEntryID(ctx)
	if !ok {
		return
	}
	input, ok := c.bindInput(ctx)
	if !ok {
		return
	}

	result, err := c.entryService.UpdateEntry(ctx.Request.Context(), id, input)
	if err != nil {
		c.respondError(ctx, err, "failed to update entry", startTime, "entry_id", id)
		return
	}

	c.logger.Info("entry updated",
		"entry_id", result.Entry.ID,
		"bucket", result.Entry.Bucket().String(),
		"month", result.Entry.Month,
		"aggregate_id", result.Aggregate.ID,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, result)
}

// DeleteEntry handles DELETE /v1/entries/{id}
func (c *EntryController) DeleteEntry(ctx *gin.Context) {
	startTime := time.Now()
	id, ok := c.parseEntryID(ctx)
	if !ok {
		return
	}

	outcome, err := c.entryService.DeleteEntry(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, err, "failed to delete entry", startTime, "entry_id", id)
		return
	}

	c.logger.Info("entry deleted",
		"entry_id", id,
		"aggregate_action", string(outcome.Action),
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, outcome)
}

func (c *EntryController) parseYear(ctx *gin.Context) (int, bool) {
	yearStr := ctx.Param("year")
	year, err := strconv.Atoi(yearStr)
	if err != nil || year <= 0 {
		c.logger.Warn("invalid year", "year", yearStr)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid year",
			"message": "year must be a positive integer",
		})
		return 0, false
	}
	return year, true
}

func (c *EntryController) parseEntryID(ctx *gin.Context) (uint, bool) {
	idStr := ctx.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.logger.Warn("invalid entry id", "id", idStr)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid id",
			"message": "id must be a positive integer",
		})
		return 0, false
	}
	return uint(id), true
}

func (c *EntryController) bindInput(ctx *gin.Context) (service.EntryInput, bool) {
	var input service.EntryInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		c.logger.Warn("invalid entry payload", "error", err.Error())
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid payload",
			"message": err.Error(),
		})
		return service.EntryInput{}, false
	}
	return input, true
}

// respondError maps service errors onto HTTP statuses and logs the failure
func (c *EntryController) respondError(ctx *gin.Context, err error, msg string, startTime time.Time, attrs ...any) {
	latency := time.Since(startTime)
	attrs = append(attrs, "error", err.Error(), "latency_ms", latency.Milliseconds())

	switch {
	case errors.Is(err, service.ErrInvalidEntry):
		c.logger.Warn(msg, attrs...)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid entry",
			"message": err.Error(),
		})
	case errors.Is(err, service.ErrEntryNotFound):
		c.logger.Warn(msg, attrs...)
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Entry not found",
			"message": fmt.Sprintf("Entry %s does not exist", ctx.Param("id")),
		})
	default:
		c.logger.Error(msg, attrs...)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": msg,
		})
	}
}
