package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// Roster suggestion parameters. The roster works with whole duty shifts, not
// slot grids, so these are durations rather than capacities.
const (
	// MinShiftMinutes is the smallest gap worth suggesting a shift into.
	MinShiftMinutes = 8 * 60
	// MinOvernightLeadMinutes is the remainder of the day required before an
	// overnight continuation is suggested.
	MinOvernightLeadMinutes = 2 * 60
	// latestOvernightStart is the last clock time an overnight shift may
	// start at.
	latestOvernightStart = model.TimeOfDay(23 * 60)
	// overnightEnd is the next-day end time of a suggested overnight shift.
	overnightEnd = model.TimeOfDay(8 * 60)
	// defaultShiftStart/End frame the fallback day shift on the next day.
	defaultShiftStart = model.TimeOfDay(8 * 60)
	defaultShiftEnd   = model.TimeOfDay(17 * 60)
)

// RosterStore defines the database operations needed for the emergency-duty
// roster.
type RosterStore interface {
	GetRosterShifts(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]model.RosterShift, error)
	GetRosterShiftsForDate(ctx context.Context, date time.Time) ([]model.RosterShift, error)
	InsertRosterShift(ctx context.Context, shift model.RosterShift) error
}

var rosterValidate = validator.New()

// NewRosterShift is the input for creating or checking a roster shift.
// An end time at or before the start time denotes an overnight shift.
type NewRosterShift struct {
	ResourceID string `validate:"required"`
	Date       string `validate:"required,datetime=2006-01-02"`
	Start      string `validate:"required"`
	End        string `validate:"required"`
	ShiftType  string
}

// CheckShiftConflicts returns every active shift of the resource that
// overlaps the proposed interval. Shifts from the surrounding days are
// included so overnight spills in either direction are caught; excludeID
// skips the shift being updated.
func CheckShiftConflicts(
	ctx context.Context,
	store RosterStore,
	logger *zap.Logger,
	resourceID string,
	date time.Time,
	start, end model.TimeOfDay,
	excludeID string,
) ([]model.RosterShift, error) {
	date = model.DateOnly(date)
	window := model.NewShiftWindow(start, end)
	newStart, newEnd := window.AnchorTo(date)

	logger.Debug("Checking shift conflicts",
		zap.String("resource_id", resourceID),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("start", start.Clock()),
		zap.String("end", end.Clock()),
		zap.Bool("overnight", window.SpansMidnight))

	candidates, err := store.GetRosterShifts(ctx, resourceID,
		date.AddDate(0, 0, -1), date.AddDate(0, 0, 1), excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster shifts: %w", err)
	}

	var conflicts []model.RosterShift
	for _, candidate := range candidates {
		candidateStart, candidateEnd := candidate.Window.AnchorTo(model.DateOnly(candidate.PlanningDate))
		if newStart.Before(candidateEnd) && newEnd.After(candidateStart) {
			conflicts = append(conflicts, candidate)
		}
	}

	logger.Debug("Conflict check finished", zap.Int("conflicts", len(conflicts)))
	return conflicts, nil
}

// CreateRosterShift validates the input, rejects overlapping shifts with a
// ConflictError, and persists the shift. The check-then-insert race is
// accepted for human-paced roster edits.
func CreateRosterShift(
	ctx context.Context,
	store RosterStore,
	logger *zap.Logger,
	input NewRosterShift,
) (*model.RosterShift, error) {
	if err := rosterValidate.Struct(input); err != nil {
		return nil, &model.ValidationError{Field: "shift", Reason: err.Error()}
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, &model.ValidationError{Field: "date", Reason: err.Error()}
	}
	start, err := model.ParseTimeOfDay(input.Start)
	if err != nil {
		return nil, &model.ValidationError{Field: "start", Reason: err.Error()}
	}
	end, err := model.ParseTimeOfDay(input.End)
	if err != nil {
		return nil, &model.ValidationError{Field: "end", Reason: err.Error()}
	}

	conflicts, err := CheckShiftConflicts(ctx, store, logger, input.ResourceID, date, start, end, "")
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &model.ConflictError{Conflicts: conflicts}
	}

	shift := model.RosterShift{
		ResourceID:   input.ResourceID,
		PlanningDate: model.DateOnly(date),
		Window:       model.NewShiftWindow(start, end),
		ShiftType:    input.ShiftType,
	}
	if err := store.InsertRosterShift(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to insert roster shift: %w", err)
	}

	logger.Info("Roster shift created",
		zap.String("resource_id", shift.ResourceID),
		zap.String("date", shift.PlanningDate.Format("2006-01-02")),
		zap.String("start", shift.Window.Start.Clock()),
		zap.String("end", shift.Window.End.Clock()),
		zap.Bool("overnight", shift.Window.SpansMidnight))

	return &shift, nil
}

// ShiftSuggestion is a proposed start/end for a new roster shift.
type ShiftSuggestion struct {
	Start         model.TimeOfDay
	End           model.TimeOfDay
	IsOvernight   bool
	NextDay       bool
	SuggestedDate time.Time
}

// SuggestNextShift proposes where the next roster shift should go on the
// given date: the first free gap of at least eight hours, failing that an
// overnight continuation after the last shift, failing that the default day
// shift on the next day.
func SuggestNextShift(
	ctx context.Context,
	store RosterStore,
	logger *zap.Logger,
	date time.Time,
) (*ShiftSuggestion, error) {
	date = model.DateOnly(date)

	occupied, err := occupiedIntervals(ctx, store, date)
	if err != nil {
		return nil, err
	}

	logger.Debug("Suggesting next shift",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("occupied_intervals", len(occupied)))

	// Scan from midnight for the first gap big enough for a full shift.
	cursor := model.TimeOfDay(0)
	for _, interval := range occupied {
		if int(interval.start)-int(cursor) >= MinShiftMinutes {
			return &ShiftSuggestion{
				Start:         cursor,
				End:           cursor.Add(MinShiftMinutes),
				SuggestedDate: date,
			}, nil
		}
		if interval.end > cursor {
			cursor = interval.end
		}
	}
	if model.MinutesPerDay-int(cursor) >= MinShiftMinutes {
		return &ShiftSuggestion{
			Start:         cursor,
			End:           cursor.Add(MinShiftMinutes),
			SuggestedDate: date,
		}, nil
	}

	// No full gap left. If enough of the day remains, continue into the
	// night and end next morning.
	if cursor < latestOvernightStart && model.MinutesPerDay-int(cursor) >= MinOvernightLeadMinutes {
		return &ShiftSuggestion{
			Start:         cursor,
			End:           overnightEnd,
			IsOvernight:   true,
			SuggestedDate: date,
		}, nil
	}

	// Day saturated: fall back to the default shift on the next day.
	return &ShiftSuggestion{
		Start:         defaultShiftStart,
		End:           defaultShiftEnd,
		NextDay:       true,
		SuggestedDate: date.AddDate(0, 0, 1),
	}, nil
}

type occupiedInterval struct {
	start model.TimeOfDay
	end   model.TimeOfDay
}

// occupiedIntervals projects the date's roster shifts onto the day: shifts
// starting on the date occupy [start, end] (overnight ones run to midnight),
// and the previous day's overnight shifts occupy [00:00, end].
func occupiedIntervals(ctx context.Context, store RosterStore, date time.Time) ([]occupiedInterval, error) {
	shifts, err := store.GetRosterShiftsForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shifts for date: %w", err)
	}
	previous, err := store.GetRosterShiftsForDate(ctx, date.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch previous day shifts: %w", err)
	}

	var occupied []occupiedInterval
	for _, shift := range shifts {
		end := shift.Window.End
		if shift.Window.SpansMidnight {
			end = model.TimeOfDay(model.MinutesPerDay)
		}
		occupied = append(occupied, occupiedInterval{start: shift.Window.Start, end: end})
	}
	for _, shift := range previous {
		if shift.Window.SpansMidnight {
			occupied = append(occupied, occupiedInterval{start: 0, end: shift.Window.End})
		}
	}

	sort.Slice(occupied, func(i, j int) bool { return occupied[i].start < occupied[j].start })
	return occupied, nil
}
