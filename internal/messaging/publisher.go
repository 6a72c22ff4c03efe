package messaging

import (
	"context"
	"time"
)

// RunCompletedEvent is published when an analysis run snapshot has been
// persisted and is safe for consumers to query
type RunCompletedEvent struct {
	RunID         string    `json:"run_id"`
	AsOf          time.Time `json:"as_of"`
	GeneratedAt   time.Time `json:"generated_at"`
	CustomerCount int       `json:"customer_count"`
	SegmentCount  int       `json:"segment_count"`
	CohortCount   int       `json:"cohort_count"`
}

// Publisher defines the interface for publishing run events to the message broker
type Publisher interface {
	// PublishRunCompleted announces a persisted run snapshot
	PublishRunCompleted(ctx context.Context, event *RunCompletedEvent) error
	// Close closes the connection
	Close()
}
