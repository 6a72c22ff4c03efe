package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAsOfBeforeData is returned when the run's as-of date precedes a
	// transaction timestamp (caller error)
	ErrAsOfBeforeData = errors.New("as-of date precedes transaction data")

	// ErrNegativeAmount is returned for transactions with a negative amount
	ErrNegativeAmount = errors.New("negative transaction amount")

	// ErrMissingField is returned when a required field is absent
	ErrMissingField = errors.New("missing required field")

	// ErrUnclassified indicates the rule list failed to match a customer.
	// The mandatory catch-all rule makes this unreachable; any occurrence is
	// an internal invariant violation, not a data problem.
	ErrUnclassified = errors.New("no segment rule matched")

	// ErrRunNotFound is returned when a persisted run snapshot does not exist
	ErrRunNotFound = errors.New("run not found")
)

// Stage identifies the pipeline stage where a run failed
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageAggregate Stage = "aggregate"
	StageScore     Stage = "score"
	StageClassify  Stage = "classify"
	StageCohort    Stage = "cohort"
	StageForecast  Stage = "forecast"
	StageReport    Stage = "report"
	StagePersist   Stage = "persist"
)

// StageError wraps a pipeline failure with the failing stage and a reference
// to the offending record. A failed run surfaces exactly one StageError and
// no partial results.
type StageError struct {
	Stage     Stage
	RecordRef string
	Err       error
}

func (e *StageError) Error() string {
	if e.RecordRef != "" {
		return fmt.Sprintf("%s: record %s: %v", e.Stage, e.RecordRef, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError builds a StageError for a specific record
func NewStageError(stage Stage, recordRef string, err error) *StageError {
	return &StageError{Stage: stage, RecordRef: recordRef, Err: err}
}
