package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/cache"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/slotgrid"
	"github.com/hodaifayahia/clinic-scheduling/pkg/db"
)

// DefaultOverflowStepMinutes is the spacing of overflow slots grown past the
// end of a full grid.
const DefaultOverflowStepMinutes = 15

// RebalanceStore defines the database operations needed for rebalancing.
type RebalanceStore interface {
	GetAppointments(ctx context.Context, resourceID string, date time.Time) ([]model.Appointment, error)
	GetFutureAppointmentDates(ctx context.Context, resourceID string, from time.Time) ([]time.Time, error)
	ApplyReassignments(ctx context.Context, date time.Time, reassignments []db.Reassignment) error
}

// DateFailure records a per-date transaction failure. The date's batch was
// rolled back; other dates are unaffected.
type DateFailure struct {
	Date time.Time
	Err  error
}

// RebalanceResult summarizes one rebalancing run.
type RebalanceResult struct {
	ResourceID string
	// Rebalanced lists the dates whose reassignments committed.
	Rebalanced []time.Time
	// Skipped lists dates whose new rule set generated an empty grid. Their
	// appointments keep their old times and should be reviewed manually.
	Skipped []time.Time
	// Failures lists dates whose transaction rolled back.
	Failures []DateFailure
	// Moved counts appointments whose time actually changed.
	Moved int
}

// RebalanceAppointments reassigns booked appointments to the slot grids
// produced by a resource's new rule set, one affected date at a time. Each
// date commits in its own transaction; a failure is recorded and the
// remaining dates proceed. Cross-date atomicity is deliberately not provided
// so a bulk weekly-template change never holds one giant lock.
func RebalanceAppointments(
	ctx context.Context,
	store RebalanceStore,
	avCache *cache.AvailabilityCache,
	logger *zap.Logger,
	resourceID string,
	replacement db.RuleReplacement,
	affectedDates []time.Time,
	overflowStepMinutes int,
) (*RebalanceResult, error) {
	if overflowStepMinutes <= 0 {
		overflowStepMinutes = DefaultOverflowStepMinutes
	}

	logger.Debug("Starting rebalance",
		zap.String("resource_id", resourceID),
		zap.Int("affected_dates", len(affectedDates)))

	result := &RebalanceResult{ResourceID: resourceID}

	for _, date := range affectedDates {
		date := model.DateOnly(date)

		appointments, err := store.GetAppointments(ctx, resourceID, date)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch appointments for %s: %w", date.Format("2006-01-02"), err)
		}
		if len(appointments) == 0 {
			continue
		}

		grid := slotgrid.GenerateGrid(defsForDate(replacement, date), false, 0)
		if len(grid) == 0 {
			// The new rules leave this date with no slots. The bookings keep
			// their old times; surface the date instead of touching them.
			logger.Warn("New rules generate no slots; appointments left untouched",
				zap.String("resource_id", resourceID),
				zap.String("date", date.Format("2006-01-02")),
				zap.Int("appointments", len(appointments)))
			result.Skipped = append(result.Skipped, date)
			continue
		}

		reassignments, moved := assignSlots(appointments, grid, overflowStepMinutes)

		if err := store.ApplyReassignments(ctx, date, reassignments); err != nil {
			txErr := &model.TransactionError{Date: date, Err: err}
			logger.Error("Rebalance transaction failed; date rolled back",
				zap.String("resource_id", resourceID),
				zap.String("date", date.Format("2006-01-02")),
				zap.Error(err))
			result.Failures = append(result.Failures, DateFailure{Date: date, Err: txErr})
			continue
		}

		if avCache != nil {
			avCache.Invalidate(resourceID, date)
		}

		result.Rebalanced = append(result.Rebalanced, date)
		result.Moved += moved
	}

	logger.Info("Rebalance finished",
		zap.String("resource_id", resourceID),
		zap.Int("rebalanced_dates", len(result.Rebalanced)),
		zap.Int("skipped_dates", len(result.Skipped)),
		zap.Int("failed_dates", len(result.Failures)),
		zap.Int("moved", result.Moved))

	return result, nil
}

// assignSlots maps appointments onto the grid in created_at order. When there
// are more appointments than slots, the grid tail grows by one overflow step
// per excess appointment.
func assignSlots(appointments []model.Appointment, grid []model.TimeOfDay, overflowStepMinutes int) ([]db.Reassignment, int) {
	reassignments := make([]db.Reassignment, 0, len(appointments))
	moved := 0

	last := grid[len(grid)-1]
	for i, appt := range appointments {
		var slot model.TimeOfDay
		if i < len(grid) {
			slot = grid[i]
			last = slot
		} else {
			last = last.Add(overflowStepMinutes)
			slot = last
		}

		reassignments = append(reassignments, db.Reassignment{
			AppointmentID: appt.ID,
			NewTime:       slot,
		})
		if slot != appt.Time {
			moved++
		}
	}

	return reassignments, moved
}

// defsForDate resolves the new rule set's effective shifts for one date:
// a date override wins over the weekday's recurring rules.
func defsForDate(replacement db.RuleReplacement, date time.Time) []model.ShiftDef {
	var defs []model.ShiftDef
	for _, rule := range replacement.Overrides {
		if rule.IsActive && model.DateOnly(rule.Date).Equal(date) {
			defs = append(defs, rule.Shift)
		}
	}
	if len(defs) > 0 {
		return defs
	}

	for _, rule := range replacement.Recurring {
		if rule.IsActive && rule.Weekday == date.Weekday() {
			defs = append(defs, rule.Shift)
		}
	}
	return defs
}

// AffectedDates computes which future dates a rule replacement touches:
// every override's own date, plus every future date that both matches a
// replaced weekday and already holds appointments. The weekday expansion is
// bounded by the latest scheduled appointment.
func AffectedDates(
	ctx context.Context,
	store RebalanceStore,
	logger *zap.Logger,
	resourceID string,
	replacement db.RuleReplacement,
	now time.Time,
) ([]time.Time, error) {
	today := model.DateOnly(now)

	appointmentDates, err := store.GetFutureAppointmentDates(ctx, resourceID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch future appointment dates: %w", err)
	}
	byKey := make(map[string]time.Time, len(appointmentDates))
	for _, date := range appointmentDates {
		byKey[date.Format("2006-01-02")] = model.DateOnly(date)
	}

	affected := make(map[string]time.Time)

	for _, rule := range replacement.Overrides {
		if !rule.IsActive {
			continue
		}
		date := model.DateOnly(rule.Date)
		if !date.Before(today) {
			affected[date.Format("2006-01-02")] = date
		}
	}

	weekdays := replacedWeekdays(replacement.Recurring)
	if len(weekdays) > 0 && len(appointmentDates) > 0 {
		horizon := model.DateOnly(appointmentDates[len(appointmentDates)-1])

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:      rrule.WEEKLY,
			Byweekday: weekdays,
			Dtstart:   today,
			Until:     horizon.AddDate(0, 0, 1),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build weekday recurrence: %w", err)
		}

		for _, occurrence := range rule.All() {
			key := occurrence.Format("2006-01-02")
			if date, ok := byKey[key]; ok {
				affected[key] = date
			}
		}
	}

	dates := make([]time.Time, 0, len(affected))
	for _, date := range affected {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	logger.Debug("Computed affected dates",
		zap.String("resource_id", resourceID),
		zap.Int("count", len(dates)))

	return dates, nil
}

func replacedWeekdays(rules []model.RecurringShiftRule) []rrule.Weekday {
	byWeekday := map[time.Weekday]rrule.Weekday{
		time.Monday:    rrule.MO,
		time.Tuesday:   rrule.TU,
		time.Wednesday: rrule.WE,
		time.Thursday:  rrule.TH,
		time.Friday:    rrule.FR,
		time.Saturday:  rrule.SA,
		time.Sunday:    rrule.SU,
	}

	seen := make(map[time.Weekday]bool)
	var weekdays []rrule.Weekday
	for _, rule := range rules {
		if !rule.IsActive || seen[rule.Weekday] {
			continue
		}
		seen[rule.Weekday] = true
		weekdays = append(weekdays, byWeekday[rule.Weekday])
	}
	return weekdays
}
