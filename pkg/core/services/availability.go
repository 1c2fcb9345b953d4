package services

import (
	"context"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/internal/config"
	"github.com/hodaifayahia/clinic-scheduling/pkg/cache"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/slotgrid"
)

// AvailabilityStore defines the database operations needed for availability
// searches.
type AvailabilityStore interface {
	GetRecurringRules(ctx context.Context, resourceID string, weekday time.Weekday) ([]model.RecurringShiftRule, error)
	GetOverrideRules(ctx context.Context, resourceID string, date time.Time) ([]model.DateOverrideRule, error)
	GetExclusions(ctx context.Context, resourceID string, from, to time.Time) ([]model.ExclusionPeriod, error)
	IsMonthAvailable(ctx context.Context, resourceID string, year int, month time.Month) (bool, error)
	GetAppointments(ctx context.Context, resourceID string, date time.Time) ([]model.Appointment, error)
}

// Availability is a date with at least one free slot.
type Availability struct {
	Date   time.Time
	Period model.ShiftPeriod
	// Slots holds the free slot list when the caller asked for slot detail.
	Slots []model.TimeOfDay
}

// FindNextOptions tunes an availability search.
type FindNextOptions struct {
	// RangeDays widens the search to start±RangeDays instead of walking
	// forward to the end of the year.
	RangeDays int
	// IncludeSlots asks for the winning date's free slot list.
	IncludeSlots bool
	// Now fixes the search's notion of "now"; zero means time.Now().
	Now time.Time
}

// FindNextAvailability finds the first date with at least one free slot for
// the resource. A nil result means no availability within the horizon; that
// is an expected outcome, not an error.
func FindNextAvailability(
	ctx context.Context,
	store AvailabilityStore,
	avCache *cache.AvailabilityCache,
	cfg *config.Config,
	logger *zap.Logger,
	resourceID string,
	startDate time.Time,
	opts FindNextOptions,
) (*Availability, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := model.DateOnly(now)
	start := model.DateOnly(startDate)

	logger.Debug("Starting availability search",
		zap.String("resource_id", resourceID),
		zap.String("start_date", start.Format("2006-01-02")),
		zap.Int("range_days", opts.RangeDays))

	var scanFrom, scanTo time.Time
	if opts.RangeDays > 0 {
		scanFrom = start.AddDate(0, 0, -opts.RangeDays)
		scanTo = start.AddDate(0, 0, opts.RangeDays)
	} else {
		scanFrom = start
		if scanFrom.Before(today) {
			scanFrom = today
		}
		// Walk no further than the end of the scan start's year.
		scanTo = time.Date(scanFrom.Year(), 12, 31, 0, 0, 0, 0, scanFrom.Location())
	}

	f, err := newDayResolver(ctx, store, cfg, resourceID, scanFrom, scanTo, now)
	if err != nil {
		return nil, err
	}
	f.cache = avCache

	if opts.RangeDays > 0 {
		// Evaluate the full window and return the chronologically earliest
		// qualifying date. Walking in ascending order makes the first hit
		// the earliest.
		for d := scanFrom; !d.After(scanTo); d = d.AddDate(0, 0, 1) {
			av, _, err := f.dateAvailability(ctx, d, opts.IncludeSlots)
			if err != nil {
				return nil, err
			}
			if av != nil {
				logger.Debug("Found availability in range",
					zap.String("date", av.Date.Format("2006-01-02")),
					zap.String("period", string(av.Period)))
				return av, nil
			}
		}
		logger.Debug("No availability within range")
		return nil, nil
	}

	for d := scanFrom; !d.After(scanTo); {
		av, monthOff, err := f.dateAvailability(ctx, d, opts.IncludeSlots)
		if err != nil {
			return nil, err
		}
		if av != nil {
			logger.Debug("Found next availability",
				zap.String("date", av.Date.Format("2006-01-02")),
				zap.String("period", string(av.Period)))
			return av, nil
		}
		if monthOff {
			// The whole month is switched off; fast-forward to the first
			// day of the next month.
			d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
			continue
		}
		d = d.AddDate(0, 0, 1)
	}

	logger.Debug("No availability before end of year")
	return nil, nil
}

// dayResolver evaluates the per-date availability predicate. Exclusions and
// configured closure days are loaded once for the whole scan range.
type dayResolver struct {
	store      AvailabilityStore
	cache      *cache.AvailabilityCache
	resourceID string
	exclusions []model.ExclusionPeriod
	closures   map[string]bool
	now        time.Time
	today      time.Time
}

func newDayResolver(
	ctx context.Context,
	store AvailabilityStore,
	cfg *config.Config,
	resourceID string,
	from, to time.Time,
	now time.Time,
) (*dayResolver, error) {
	exclusions, err := store.GetExclusions(ctx, resourceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exclusions: %w", err)
	}

	var closureRules []string
	if cfg != nil {
		closureRules = cfg.ClosureRules
	}
	closures, err := expandClosures(closureRules, from, to)
	if err != nil {
		return nil, err
	}

	return &dayResolver{
		store:      store,
		resourceID: resourceID,
		exclusions: exclusions,
		closures:   closures,
		now:        now,
		today:      model.DateOnly(now),
	}, nil
}

// dateAvailability applies the full per-date predicate: past-date skip, month
// flag gate, closure/exclusion gates, effective-shift resolution and the
// free-slot check. monthOff signals the caller that the date's whole month is
// unavailable.
func (f *dayResolver) dateAvailability(ctx context.Context, date time.Time, includeSlots bool) (av *Availability, monthOff bool, err error) {
	if date.Before(f.today) {
		return nil, false, nil
	}

	// Month availability is a precondition checked before any rule or
	// exclusion logic. No flag means unavailable.
	available, err := f.store.IsMonthAvailable(ctx, f.resourceID, date.Year(), date.Month())
	if err != nil {
		return nil, false, fmt.Errorf("failed to check month availability: %w", err)
	}
	if !available {
		return nil, true, nil
	}

	if f.closures[date.Format("2006-01-02")] {
		return nil, false, nil
	}

	defs, err := f.effectiveShifts(ctx, date)
	if err != nil {
		return nil, false, err
	}
	if len(defs) == 0 {
		return nil, false, nil
	}

	grid, booked, err := f.gridAndBooked(ctx, date, defs)
	if err != nil {
		return nil, false, err
	}

	if date.Equal(f.today) {
		grid = dropPassedSlots(grid, model.TimeOfDayFromClock(f.now))
	}

	free := slotgrid.FreeSlots(grid, booked)
	if len(free) == 0 {
		return nil, false, nil
	}

	result := &Availability{
		Date:   date,
		Period: periodForSlot(defs, free[0]),
	}
	if includeSlots {
		result.Slots = free
	}
	return result, false, nil
}

// effectiveShifts resolves the date's shift definitions through the priority
// chain: limited-exclusion override, then date override, then the weekday's
// recurring rules. The first provider with a non-empty answer wins; a
// complete exclusion yields no shifts at all.
func (f *dayResolver) effectiveShifts(ctx context.Context, date time.Time) ([]model.ShiftDef, error) {
	providers := []func(context.Context, time.Time) ([]model.ShiftDef, bool, error){
		f.exclusionShifts,
		f.overrideShifts,
		f.recurringShifts,
	}

	for _, provider := range providers {
		defs, done, err := provider(ctx, date)
		if err != nil {
			return nil, err
		}
		if done {
			return defs, nil
		}
	}
	return nil, nil
}

// exclusionShifts terminates resolution when an exclusion covers the date: a
// complete exclusion removes the date, a limited one swaps in its override.
func (f *dayResolver) exclusionShifts(_ context.Context, date time.Time) ([]model.ShiftDef, bool, error) {
	for _, exclusion := range f.exclusions {
		if !exclusion.Scope.AppliesTo(f.resourceID) || !exclusion.Covers(date) {
			continue
		}
		if exclusion.Type == model.ExclusionComplete {
			return nil, true, nil
		}
		if exclusion.Override != nil {
			return []model.ShiftDef{*exclusion.Override}, true, nil
		}
	}
	return nil, false, nil
}

func (f *dayResolver) overrideShifts(ctx context.Context, date time.Time) ([]model.ShiftDef, bool, error) {
	overrides, err := f.store.GetOverrideRules(ctx, f.resourceID, date)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch override rules: %w", err)
	}

	var defs []model.ShiftDef
	for _, rule := range overrides {
		if rule.IsActive {
			defs = append(defs, rule.Shift)
		}
	}
	return defs, len(defs) > 0, nil
}

func (f *dayResolver) recurringShifts(ctx context.Context, date time.Time) ([]model.ShiftDef, bool, error) {
	rules, err := f.store.GetRecurringRules(ctx, f.resourceID, date.Weekday())
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch recurring rules: %w", err)
	}

	var defs []model.ShiftDef
	for _, rule := range rules {
		if rule.IsActive {
			defs = append(defs, rule.Shift)
		}
	}
	return defs, len(defs) > 0, nil
}

// gridAndBooked returns the date's raw slot grid and booked times, serving
// from the cache when fresh. The grid is cached without the today-grace
// filter so entries stay valid across the day.
func (f *dayResolver) gridAndBooked(ctx context.Context, date time.Time, defs []model.ShiftDef) ([]model.TimeOfDay, []model.TimeOfDay, error) {
	if f.cache != nil {
		if entry, ok := f.cache.Get(f.resourceID, date); ok {
			return entry.Slots, entry.Booked, nil
		}
	}

	grid := slotgrid.GenerateGrid(defs, false, 0)

	appointments, err := f.store.GetAppointments(ctx, f.resourceID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}
	booked := make([]model.TimeOfDay, 0, len(appointments))
	for _, appt := range appointments {
		booked = append(booked, appt.Time)
	}

	if f.cache != nil {
		f.cache.Put(f.resourceID, date, grid, booked)
	}
	return grid, booked, nil
}

// dropPassedSlots removes today's slots at or before now plus the grace
// buffer.
func dropPassedSlots(grid []model.TimeOfDay, now model.TimeOfDay) []model.TimeOfDay {
	cutoff := now.Add(slotgrid.GraceMinutes)
	var kept []model.TimeOfDay
	for _, slot := range grid {
		if slot > cutoff {
			kept = append(kept, slot)
		}
	}
	return kept
}

// periodForSlot labels a slot with the shift period that contains it.
func periodForSlot(defs []model.ShiftDef, slot model.TimeOfDay) model.ShiftPeriod {
	for _, def := range defs {
		if slot >= def.Start && slot <= def.End {
			return def.Period
		}
	}
	if len(defs) > 0 {
		return defs[0].Period
	}
	return ""
}

// expandClosures evaluates the configured closure recurrence rules over the
// scan range, keyed by formatted date.
func expandClosures(rules []string, from, to time.Time) (map[string]bool, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	closures := make(map[string]bool)
	for i, ruleStr := range rules {
		rule, err := rrule.StrToRRule(ruleStr)
		if err != nil {
			return nil, fmt.Errorf("invalid closure rule %d: %w", i, err)
		}
		for _, occurrence := range rule.Between(from.AddDate(0, 0, -1), to.AddDate(0, 0, 1), true) {
			closures[occurrence.Format("2006-01-02")] = true
		}
	}
	return closures, nil
}
