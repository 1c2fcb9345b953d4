package db

import (
	"context"
	"time"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// Store is the full set of database operations the scheduling engine needs.
// Services depend on narrower interfaces declared next to each service; this
// aggregate exists so the CLI can hand one implementation to all of them.
type Store interface {
	// Shift rules
	GetRecurringRules(ctx context.Context, resourceID string, weekday time.Weekday) ([]model.RecurringShiftRule, error)
	GetOverrideRules(ctx context.Context, resourceID string, date time.Time) ([]model.DateOverrideRule, error)
	ReplaceRules(ctx context.Context, resourceID string, replacement RuleReplacement) error
	DuplicateRules(ctx context.Context, fromResourceID, toResourceID string) error

	// Exclusions and month flags
	GetExclusions(ctx context.Context, resourceID string, from, to time.Time) ([]model.ExclusionPeriod, error)
	IsMonthAvailable(ctx context.Context, resourceID string, year int, month time.Month) (bool, error)

	// Appointments
	GetAppointments(ctx context.Context, resourceID string, date time.Time) ([]model.Appointment, error)
	GetFutureAppointmentDates(ctx context.Context, resourceID string, from time.Time) ([]time.Time, error)
	ApplyReassignments(ctx context.Context, date time.Time, reassignments []Reassignment) error

	// Emergency roster
	GetRosterShifts(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]model.RosterShift, error)
	GetRosterShiftsForDate(ctx context.Context, date time.Time) ([]model.RosterShift, error)
	InsertRosterShift(ctx context.Context, shift model.RosterShift) error
}
