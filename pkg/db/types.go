package db

import (
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// Reassignment moves one appointment to a new slot time during rebalancing.
type Reassignment struct {
	AppointmentID string
	NewTime       model.TimeOfDay
}

// RuleReplacement is a resource's full new shift template. Rule sets are
// mutated only by replacement: the store deletes the resource's existing
// rules and inserts these in a single transaction.
type RuleReplacement struct {
	Recurring []model.RecurringShiftRule
	Overrides []model.DateOverrideRule
}
