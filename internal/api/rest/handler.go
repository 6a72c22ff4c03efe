package rest

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
	"github.com/retail-pulse/segmentation-engine/internal/engine"
	"github.com/retail-pulse/segmentation-engine/internal/store"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// GetLatestRun retrieves the header of the most recent run
	// GET /api/v1/runs/latest
	GetLatestRun(c *gin.Context)

	// GetRun retrieves a run header by ID
	// GET /api/v1/runs/:id
	GetRun(c *gin.Context)

	// ListRunCustomers retrieves per-customer results of a run
	// GET /api/v1/runs/:id/customers?segment=<segment>&limit=<limit>&offset=<offset>
	ListRunCustomers(c *gin.Context)

	// GetRunSegments retrieves the segment summaries of a run
	// GET /api/v1/runs/:id/segments
	GetRunSegments(c *gin.Context)

	// GetRunCohorts retrieves the cohort retention matrix of a run
	// GET /api/v1/runs/:id/cohorts
	GetRunCohorts(c *gin.Context)

	// ListRecommendations retrieves the marketing playbook for all segments
	// GET /api/v1/recommendations
	ListRecommendations(c *gin.Context)

	// GetSegmentRecommendation retrieves the marketing playbook for one segment
	// GET /api/v1/segments/:name/recommendation
	GetSegmentRecommendation(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.Store
}

// NewHandler creates a new REST API handler backed by the given store
func NewHandler(s store.Store) Handler {
	return &handler{store: s}
}

// runResponse is the run header payload
type runResponse struct {
	RunID       string                    `json:"run_id"`
	Params      domain.RunParams          `json:"params"`
	GeneratedAt string                    `json:"generated_at"`
	Boundaries  domain.QuantileBoundaries `json:"boundaries"`
}

// customerListResponse is the paged customer results payload
type customerListResponse struct {
	Items  []domain.CustomerResult `json:"items"`
	Total  uint64                  `json:"total"`
	Limit  int                     `json:"limit"`
	Offset uint64                  `json:"offset"`
}

func toRunResponse(r *domain.RunResult) runResponse {
	return runResponse{
		RunID:       r.RunID,
		Params:      r.Params,
		GeneratedAt: r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Boundaries:  r.Boundaries,
	}
}

func (h *handler) GetLatestRun(c *gin.Context) {
	run, err := h.store.GetLatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondNotFound(c, "No runs available")
			return
		}
		respondInternalError(c, err, "Failed to get latest run")
		return
	}

	c.JSON(200, toRunResponse(run))
}

func (h *handler) GetRun(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respondBadRequest(c, "Run ID is required")
		return
	}

	run, err := h.store.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondNotFound(c, "Run not found")
			return
		}
		respondInternalError(c, err, "Failed to get run", zap.String("run_id", runID))
		return
	}

	c.JSON(200, toRunResponse(run))
}

func (h *handler) ListRunCustomers(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respondBadRequest(c, "Run ID is required")
		return
	}

	queryParams, err := ParseListCustomersQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if queryParams.Segment != "" {
		if _, ok := engine.RecommendationFor(domain.Segment(queryParams.Segment)); !ok {
			respondValidationError(c, "Unknown segment: "+queryParams.Segment)
			return
		}
	}

	// Run existence is checked first so an empty page and an unknown run
	// are distinguishable
	if _, err := h.store.GetRun(c.Request.Context(), runID); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondNotFound(c, "Run not found")
			return
		}
		respondInternalError(c, err, "Failed to get run", zap.String("run_id", runID))
		return
	}

	results, total, err := h.store.ListCustomerResults(c.Request.Context(), runID, store.CustomerResultFilter{
		Segment: queryParams.Segment,
		Limit:   queryParams.Limit,
		Offset:  queryParams.Offset,
	})
	if err != nil {
		respondInternalError(c, err, "Failed to list customer results", zap.String("run_id", runID))
		return
	}

	c.JSON(200, customerListResponse{
		Items:  results,
		Total:  total,
		Limit:  queryParams.Limit,
		Offset: queryParams.Offset,
	})
}

func (h *handler) GetRunSegments(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respondBadRequest(c, "Run ID is required")
		return
	}

	if _, err := h.store.GetRun(c.Request.Context(), runID); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondNotFound(c, "Run not found")
			return
		}
		respondInternalError(c, err, "Failed to get run", zap.String("run_id", runID))
		return
	}

	summaries, err := h.store.GetSegmentSummaries(c.Request.Context(), runID)
	if err != nil {
		respondInternalError(c, err, "Failed to get segment summaries", zap.String("run_id", runID))
		return
	}

	c.JSON(200, gin.H{"items": summaries})
}

func (h *handler) GetRunCohorts(c *gin.Context) {
	runID := c.Param("id")
	if runID == "" {
		respondBadRequest(c, "Run ID is required")
		return
	}

	if _, err := h.store.GetRun(c.Request.Context(), runID); err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			respondNotFound(c, "Run not found")
			return
		}
		respondInternalError(c, err, "Failed to get run", zap.String("run_id", runID))
		return
	}

	cohorts, err := h.store.GetCohortRetention(c.Request.Context(), runID)
	if err != nil {
		respondInternalError(c, err, "Failed to get cohort retention", zap.String("run_id", runID))
		return
	}

	c.JSON(200, gin.H{"items": cohorts})
}

func (h *handler) ListRecommendations(c *gin.Context) {
	c.JSON(200, gin.H{"items": engine.Recommendations()})
}

func (h *handler) GetSegmentRecommendation(c *gin.Context) {
	name := c.Param("name")

	rec, ok := engine.RecommendationFor(domain.Segment(name))
	if !ok {
		respondNotFound(c, "Unknown segment: "+name)
		return
	}

	c.JSON(200, rec)
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "segmentation-api",
	})
}
