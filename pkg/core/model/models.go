package model

import (
	"fmt"
	"time"
)

// ShiftPeriod names a sub-block of a working day.
type ShiftPeriod string

const (
	PeriodMorning   ShiftPeriod = "morning"
	PeriodAfternoon ShiftPeriod = "afternoon"
)

// CapacityKind selects how slots are derived from a shift's time range.
type CapacityKind string

const (
	// CapacityFixedInterval emits slots every N minutes from start, end excluded.
	CapacityFixedInterval CapacityKind = "fixed_interval"
	// CapacityPatientCount spreads exactly N slots evenly across the range.
	CapacityPatientCount CapacityKind = "patient_count"
)

// CapacityMode is the tagged capacity setting of a shift rule.
type CapacityMode struct {
	Kind         CapacityKind
	StepMinutes  int // fixed_interval only
	PatientCount int // patient_count only
}

// FixedInterval builds a fixed-interval capacity mode.
func FixedInterval(stepMinutes int) CapacityMode {
	return CapacityMode{Kind: CapacityFixedInterval, StepMinutes: stepMinutes}
}

// PatientCount builds a patient-count capacity mode.
func PatientCount(n int) CapacityMode {
	return CapacityMode{Kind: CapacityPatientCount, PatientCount: n}
}

// ShiftDef is the effective shift definition for one period of one day, after
// override/exclusion precedence has been resolved.
type ShiftDef struct {
	Period   ShiftPeriod
	Start    TimeOfDay
	End      TimeOfDay
	Capacity CapacityMode
}

// Validate rejects definitions the slot generator cannot work with. Clinic
// shifts never span midnight; that convention exists only for roster shifts.
func (d ShiftDef) Validate() error {
	if d.End <= d.Start {
		return &ValidationError{Field: "end_time", Reason: fmt.Sprintf("end %s must be after start %s", d.End, d.Start)}
	}
	switch d.Capacity.Kind {
	case CapacityFixedInterval:
		if d.Capacity.StepMinutes <= 0 {
			return &ValidationError{Field: "step_minutes", Reason: "must be positive"}
		}
	case CapacityPatientCount:
		if d.Capacity.PatientCount < 0 {
			return &ValidationError{Field: "patient_count", Reason: "must not be negative"}
		}
	default:
		return &ValidationError{Field: "capacity_mode", Reason: fmt.Sprintf("unknown kind %q", d.Capacity.Kind)}
	}
	return nil
}

// RecurringShiftRule is a weekly repeating shift definition owned by a
// resource. The full weekly template is mutated only by replacement.
type RecurringShiftRule struct {
	ID         string
	ResourceID string
	Weekday    time.Weekday
	Shift      ShiftDef
	IsActive   bool
}

// DateOverrideRule has the same shape as a recurring rule but is keyed by an
// explicit calendar date, which it takes precedence for.
type DateOverrideRule struct {
	ID         string
	ResourceID string
	Date       time.Time
	Shift      ShiftDef
	IsActive   bool
}

// ExclusionScope says which resources an exclusion period applies to. The
// "all resources" case is an explicit variant rather than a nil resource id.
type ExclusionScope struct {
	all        bool
	resourceID string
}

// ScopeAll returns the scope covering every resource.
func ScopeAll() ExclusionScope {
	return ExclusionScope{all: true}
}

// ScopeResource returns the scope covering a single resource.
func ScopeResource(resourceID string) ExclusionScope {
	return ExclusionScope{resourceID: resourceID}
}

// AppliesTo reports whether the scope covers the given resource.
func (s ExclusionScope) AppliesTo(resourceID string) bool {
	return s.all || s.resourceID == resourceID
}

// IsAll reports whether the scope covers every resource.
func (s ExclusionScope) IsAll() bool {
	return s.all
}

// ResourceID returns the scoped resource id; ok is false for the all-resources
// variant.
func (s ExclusionScope) ResourceID() (string, bool) {
	if s.all {
		return "", false
	}
	return s.resourceID, true
}

// ExclusionType distinguishes fully blocked periods from ones that swap in a
// reduced shift definition.
type ExclusionType string

const (
	ExclusionComplete ExclusionType = "complete"
	ExclusionLimited  ExclusionType = "limited"
)

// ExclusionPeriod blocks or limits availability over a date range.
type ExclusionPeriod struct {
	ID        string
	Scope     ExclusionScope
	StartDate time.Time
	EndDate   time.Time
	Type      ExclusionType
	// Override is the replacement shift definition for limited exclusions.
	Override *ShiftDef
}

// Covers reports whether the exclusion's date range contains the given date.
// Both bounds are inclusive.
func (e ExclusionPeriod) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(e.StartDate)) && !d.After(DateOnly(e.EndDate))
}

// MonthAvailabilityFlag is the month-level on/off switch for a resource. A
// resource is never bookable in a month without an explicit available flag.
type MonthAvailabilityFlag struct {
	ResourceID  string
	Year        int
	Month       time.Month
	IsAvailable bool
}

// AppointmentStatus is the lifecycle state of a booking.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusCanceled   AppointmentStatus = "canceled"
	StatusPending    AppointmentStatus = "pending"
	StatusDone       AppointmentStatus = "done"
	StatusInProgress AppointmentStatus = "in_progress"
)

// Appointment is a booked slot. CreatedAt defines booking priority: earlier
// bookings keep earlier slots through rebalancing.
type Appointment struct {
	ID         string
	ResourceID string
	Date       time.Time
	Time       TimeOfDay
	Status     AppointmentStatus
	CreatedAt  time.Time
}

// DateOnly truncates an instant to midnight in its own location. All calendar
// comparisons in the engine go through this.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
