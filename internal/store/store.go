package store

import (
	"context"

	"github.com/retail-pulse/segmentation-engine/internal/domain"
)

// CustomerResultFilter narrows and pages ListCustomerResults queries
type CustomerResultFilter struct {
	// Segment restricts results to a single segment when non-empty
	Segment string
	// Limit caps the page size (default 100, max 1000)
	Limit int
	// Offset skips the first N rows ordered by customer ID
	Offset uint64
}

// Store defines the interface for database operations
type Store interface {
	// SaveRun persists a full run snapshot atomically
	SaveRun(ctx context.Context, result *domain.RunResult) error
	// GetRun retrieves the run header for a run ID
	GetRun(ctx context.Context, runID string) (*domain.RunResult, error)
	// GetLatestRun retrieves the header of the most recently generated run
	GetLatestRun(ctx context.Context) (*domain.RunResult, error)
	// ListCustomerResults retrieves per-customer rows of a run, with the total match count
	ListCustomerResults(ctx context.Context, runID string, filter CustomerResultFilter) ([]domain.CustomerResult, uint64, error)
	// GetSegmentSummaries retrieves the segment rollups of a run
	GetSegmentSummaries(ctx context.Context, runID string) ([]domain.SegmentSummary, error)
	// GetCohortRetention retrieves the cohort retention matrix of a run
	GetCohortRetention(ctx context.Context, runID string) ([]domain.CohortRetention, error)
	// LoadTransactions reads the transactions source table
	LoadTransactions(ctx context.Context) ([]domain.Transaction, error)
	// LoadCustomers reads the customers dimension table
	LoadCustomers(ctx context.Context) ([]domain.Customer, error)
}
