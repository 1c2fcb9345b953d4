package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a referenced resource or rule does not exist. A
// search that finds no availability does NOT return this; empty availability
// is a valid outcome, not a fault.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input: bad time ranges, negative
// capacity, end before start outside the roster overnight convention.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// ConflictError blocks a roster shift write that overlaps existing shifts.
type ConflictError struct {
	Conflicts []RosterShift
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shift overlaps %d existing shift(s)", len(e.Conflicts))
}

// TransactionError wraps a relational-store failure during rebalancing of one
// date. Only that date's batch is rolled back.
type TransactionError struct {
	Date time.Time
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("rebalance transaction failed for %s: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
