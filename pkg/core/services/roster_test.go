package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

type mockRosterStore struct {
	shifts   []model.RosterShift
	inserted []model.RosterShift
}

func (m *mockRosterStore) GetRosterShifts(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]model.RosterShift, error) {
	var matched []model.RosterShift
	for _, shift := range m.shifts {
		if shift.ResourceID != resourceID || shift.ID == excludeID {
			continue
		}
		d := model.DateOnly(shift.PlanningDate)
		if d.Before(model.DateOnly(from)) || d.After(model.DateOnly(to)) {
			continue
		}
		matched = append(matched, shift)
	}
	return matched, nil
}

func (m *mockRosterStore) GetRosterShiftsForDate(ctx context.Context, date time.Time) ([]model.RosterShift, error) {
	var matched []model.RosterShift
	for _, shift := range m.shifts {
		if model.DateOnly(shift.PlanningDate).Equal(model.DateOnly(date)) {
			matched = append(matched, shift)
		}
	}
	return matched, nil
}

func (m *mockRosterStore) InsertRosterShift(ctx context.Context, shift model.RosterShift) error {
	m.inserted = append(m.inserted, shift)
	return nil
}

func rosterShift(id, resourceID string, day time.Time, start, end string) model.RosterShift {
	return model.RosterShift{
		ID:           id,
		ResourceID:   resourceID,
		PlanningDate: day,
		Window:       model.NewShiftWindow(model.MustParseTimeOfDay(start), model.MustParseTimeOfDay(end)),
		ShiftType:    "duty",
	}
}

func TestCheckShiftConflicts_Overlap(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "08:00", "16:00"),
	}}

	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day, model.MustParseTimeOfDay("14:00"), model.MustParseTimeOfDay("22:00"), "")

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "s1", conflicts[0].ID)
}

func TestCheckShiftConflicts_TouchingShiftsDoNotConflict(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "08:00", "16:00"),
	}}

	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day, model.MustParseTimeOfDay("16:00"), model.MustParseTimeOfDay("23:00"), "")

	require.NoError(t, err)
	assert.Empty(t, conflicts, "a shift starting exactly at another's end is allowed")
}

func TestCheckShiftConflicts_OvernightSpillsIntoNextDay(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		// 22:00 on June 2nd through 06:00 on June 3rd.
		rosterShift("s1", "doctor-1", day, "22:00", "06:00"),
	}}

	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day.AddDate(0, 0, 1),
		model.MustParseTimeOfDay("05:00"), model.MustParseTimeOfDay("09:00"), "")

	require.NoError(t, err)
	require.Len(t, conflicts, 1, "the overnight tail occupies the next morning")
	assert.Equal(t, "s1", conflicts[0].ID)

	conflicts, err = CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day.AddDate(0, 0, 1),
		model.MustParseTimeOfDay("06:00"), model.MustParseTimeOfDay("14:00"), "")

	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckShiftConflicts_NewOvernightReachesForward(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day.AddDate(0, 0, 1), "05:00", "13:00"),
	}}

	// Proposed 23:00 June 2nd through 06:00 June 3rd clips the next day's
	// early shift.
	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day, model.MustParseTimeOfDay("23:00"), model.MustParseTimeOfDay("06:00"), "")

	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "s1", conflicts[0].ID)
}

func TestCheckShiftConflicts_ExcludeID(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "08:00", "16:00"),
	}}

	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day, model.MustParseTimeOfDay("09:00"), model.MustParseTimeOfDay("17:00"), "s1")

	require.NoError(t, err)
	assert.Empty(t, conflicts, "the shift being edited is not its own conflict")
}

func TestCheckShiftConflicts_OtherResourceIgnored(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-2", day, "08:00", "16:00"),
	}}

	conflicts, err := CheckShiftConflicts(context.Background(), store, zap.NewNop(),
		"doctor-1", day, model.MustParseTimeOfDay("09:00"), model.MustParseTimeOfDay("17:00"), "")

	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCreateRosterShift(t *testing.T) {
	store := &mockRosterStore{}

	shift, err := CreateRosterShift(context.Background(), store, zap.NewNop(), NewRosterShift{
		ResourceID: "doctor-1",
		Date:       "2025-06-02",
		Start:      "22:00",
		End:        "06:00",
		ShiftType:  "night",
	})

	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.True(t, shift.Window.SpansMidnight)
	assert.Equal(t, date(2025, 6, 2), shift.PlanningDate)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "night", store.inserted[0].ShiftType)
}

func TestCreateRosterShift_RejectsMalformedInput(t *testing.T) {
	store := &mockRosterStore{}

	_, err := CreateRosterShift(context.Background(), store, zap.NewNop(), NewRosterShift{
		ResourceID: "doctor-1",
		Date:       "02/06/2025",
		Start:      "22:00",
		End:        "06:00",
	})

	var validationErr *model.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Empty(t, store.inserted)
}

func TestCreateRosterShift_RejectsOverlap(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "08:00", "16:00"),
	}}

	_, err := CreateRosterShift(context.Background(), store, zap.NewNop(), NewRosterShift{
		ResourceID: "doctor-1",
		Date:       "2025-06-02",
		Start:      "12:00",
		End:        "20:00",
	})

	var conflictErr *model.ConflictError
	require.True(t, errors.As(err, &conflictErr))
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "s1", conflictErr.Conflicts[0].ID)
	assert.Empty(t, store.inserted)
}

func TestSuggestNextShift_EmptyDay(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{}

	suggestion, err := SuggestNextShift(context.Background(), store, zap.NewNop(), day)

	require.NoError(t, err)
	assert.Equal(t, model.MustParseTimeOfDay("00:00"), suggestion.Start)
	assert.Equal(t, model.MustParseTimeOfDay("08:00"), suggestion.End)
	assert.False(t, suggestion.IsOvernight)
	assert.False(t, suggestion.NextDay)
	assert.Equal(t, day, suggestion.SuggestedDate)
}

func TestSuggestNextShift_TailGapAfterShifts(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "00:00", "14:00"),
	}}

	suggestion, err := SuggestNextShift(context.Background(), store, zap.NewNop(), day)

	require.NoError(t, err)
	assert.Equal(t, model.MustParseTimeOfDay("14:00"), suggestion.Start)
	assert.Equal(t, model.MustParseTimeOfDay("22:00"), suggestion.End)
	assert.False(t, suggestion.IsOvernight)
}

func TestSuggestNextShift_PreviousOvernightBlocksMorning(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day.AddDate(0, 0, -1), "22:00", "06:00"),
		rosterShift("s2", "doctor-2", day, "06:00", "14:00"),
	}}

	suggestion, err := SuggestNextShift(context.Background(), store, zap.NewNop(), day)

	require.NoError(t, err)
	// 00:00-06:00 is covered by yesterday's overnight tail, 06:00-14:00 by
	// the day shift; the first full gap opens at 14:00.
	assert.Equal(t, model.MustParseTimeOfDay("14:00"), suggestion.Start)
	assert.Equal(t, model.MustParseTimeOfDay("22:00"), suggestion.End)
}

func TestSuggestNextShift_OvernightContinuation(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "00:00", "09:00"),
		rosterShift("s2", "doctor-2", day, "09:00", "20:00"),
	}}

	suggestion, err := SuggestNextShift(context.Background(), store, zap.NewNop(), day)

	require.NoError(t, err)
	// Only four hours remain, not enough for a full shift but enough to run
	// into the night.
	assert.True(t, suggestion.IsOvernight)
	assert.Equal(t, model.MustParseTimeOfDay("20:00"), suggestion.Start)
	assert.Equal(t, model.MustParseTimeOfDay("08:00"), suggestion.End)
	assert.Equal(t, day, suggestion.SuggestedDate)
}

func TestSuggestNextShift_SaturatedDayFallsToNextDay(t *testing.T) {
	day := date(2025, 6, 2)
	store := &mockRosterStore{shifts: []model.RosterShift{
		rosterShift("s1", "doctor-1", day, "00:00", "22:30"),
	}}

	suggestion, err := SuggestNextShift(context.Background(), store, zap.NewNop(), day)

	require.NoError(t, err)
	assert.True(t, suggestion.NextDay)
	assert.Equal(t, model.MustParseTimeOfDay("08:00"), suggestion.Start)
	assert.Equal(t, model.MustParseTimeOfDay("17:00"), suggestion.End)
	assert.Equal(t, day.AddDate(0, 0, 1), suggestion.SuggestedDate)
}
