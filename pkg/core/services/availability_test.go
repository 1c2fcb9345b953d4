package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/internal/config"
	"github.com/hodaifayahia/clinic-scheduling/pkg/cache"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

type mockAvailabilityStore struct {
	recurring    map[time.Weekday][]model.RecurringShiftRule
	overrides    map[string][]model.DateOverrideRule
	exclusions   []model.ExclusionPeriod
	months       map[string]bool
	appointments map[string][]model.Appointment

	monthChecks       int
	appointmentCalls  int
	appointmentsError error
}

func (m *mockAvailabilityStore) GetRecurringRules(ctx context.Context, resourceID string, weekday time.Weekday) ([]model.RecurringShiftRule, error) {
	return m.recurring[weekday], nil
}

func (m *mockAvailabilityStore) GetOverrideRules(ctx context.Context, resourceID string, date time.Time) ([]model.DateOverrideRule, error) {
	return m.overrides[date.Format("2006-01-02")], nil
}

func (m *mockAvailabilityStore) GetExclusions(ctx context.Context, resourceID string, from, to time.Time) ([]model.ExclusionPeriod, error) {
	return m.exclusions, nil
}

func (m *mockAvailabilityStore) IsMonthAvailable(ctx context.Context, resourceID string, year int, month time.Month) (bool, error) {
	m.monthChecks++
	return m.months[time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")], nil
}

func (m *mockAvailabilityStore) GetAppointments(ctx context.Context, resourceID string, date time.Time) ([]model.Appointment, error) {
	m.appointmentCalls++
	if m.appointmentsError != nil {
		return nil, m.appointmentsError
	}
	return m.appointments[date.Format("2006-01-02")], nil
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// mondayClinicStore holds a Monday 09:00-12:00 shift with three patient
// slots and June 2025 switched on.
func mondayClinicStore() *mockAvailabilityStore {
	return &mockAvailabilityStore{
		recurring: map[time.Weekday][]model.RecurringShiftRule{
			time.Monday: {{
				ID:         "rule-1",
				ResourceID: "doctor-1",
				Weekday:    time.Monday,
				Shift: model.ShiftDef{
					Period:   model.PeriodMorning,
					Start:    model.MustParseTimeOfDay("09:00"),
					End:      model.MustParseTimeOfDay("12:00"),
					Capacity: model.PatientCount(3),
				},
				IsActive: true,
			}},
		},
		months: map[string]bool{"2025-06": true},
	}
}

func TestFindNextAvailability_NextMatchingWeekday(t *testing.T) {
	store := mondayClinicStore()
	logger := zap.NewNop()

	// Searching from Sunday June 1st lands on Monday June 2nd.
	result, err := FindNextAvailability(context.Background(), store, nil, nil, logger,
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			IncludeSlots: true,
			Now:          time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 2), result.Date)
	assert.Equal(t, model.PeriodMorning, result.Period)
	assert.Equal(t, []model.TimeOfDay{
		model.MustParseTimeOfDay("09:00"),
		model.MustParseTimeOfDay("10:30"),
		model.MustParseTimeOfDay("12:00"),
	}, result.Slots)
}

func TestFindNextAvailability_MonthOffFastForwards(t *testing.T) {
	store := mondayClinicStore()
	store.months = map[string]bool{"2025-07": true}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	// First Monday of July.
	assert.Equal(t, date(2025, 7, 7), result.Date)
	// One check rejects June; the search jumps straight to July 1st rather
	// than probing every June day.
	assert.Equal(t, 1+7, store.monthChecks)
}

func TestFindNextAvailability_BookedSlotsPushToNextWeek(t *testing.T) {
	store := mondayClinicStore()
	store.appointments = map[string][]model.Appointment{
		"2025-06-02": {
			{ID: "a1", Time: model.MustParseTimeOfDay("09:00")},
			{ID: "a2", Time: model.MustParseTimeOfDay("10:30")},
			{ID: "a3", Time: model.MustParseTimeOfDay("12:00")},
		},
	}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 9), result.Date)
}

func TestFindNextAvailability_CompleteExclusionSkipsDate(t *testing.T) {
	store := mondayClinicStore()
	store.exclusions = []model.ExclusionPeriod{{
		ID:        "exc-1",
		Scope:     model.ScopeAll(),
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 2),
		Type:      model.ExclusionComplete,
	}}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 9), result.Date)
}

func TestFindNextAvailability_LimitedExclusionSwapsShift(t *testing.T) {
	store := mondayClinicStore()
	store.exclusions = []model.ExclusionPeriod{{
		ID:        "exc-1",
		Scope:     model.ScopeResource("doctor-1"),
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 2),
		Type:      model.ExclusionLimited,
		Override: &model.ShiftDef{
			Period:   model.PeriodAfternoon,
			Start:    model.MustParseTimeOfDay("14:00"),
			End:      model.MustParseTimeOfDay("15:00"),
			Capacity: model.PatientCount(2),
		},
	}}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			IncludeSlots: true,
			Now:          time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 2), result.Date)
	assert.Equal(t, model.PeriodAfternoon, result.Period)
	assert.Equal(t, []model.TimeOfDay{
		model.MustParseTimeOfDay("14:00"),
		model.MustParseTimeOfDay("15:00"),
	}, result.Slots)
}

func TestFindNextAvailability_ExclusionForOtherResourceIgnored(t *testing.T) {
	store := mondayClinicStore()
	store.exclusions = []model.ExclusionPeriod{{
		ID:        "exc-1",
		Scope:     model.ScopeResource("doctor-2"),
		StartDate: date(2025, 6, 2),
		EndDate:   date(2025, 6, 2),
		Type:      model.ExclusionComplete,
	}}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 2), result.Date)
}

func TestFindNextAvailability_OverrideBeatsRecurring(t *testing.T) {
	store := mondayClinicStore()
	store.overrides = map[string][]model.DateOverrideRule{
		"2025-06-02": {{
			ID:         "ovr-1",
			ResourceID: "doctor-1",
			Date:       date(2025, 6, 2),
			Shift: model.ShiftDef{
				Period:   model.PeriodAfternoon,
				Start:    model.MustParseTimeOfDay("16:00"),
				End:      model.MustParseTimeOfDay("17:00"),
				Capacity: model.PatientCount(1),
			},
			IsActive: true,
		}},
	}

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			IncludeSlots: true,
			Now:          time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 2), result.Date)
	assert.Equal(t, []model.TimeOfDay{model.MustParseTimeOfDay("16:00")}, result.Slots)
}

func TestFindNextAvailability_TodayGraceDropsPassedSlots(t *testing.T) {
	store := mondayClinicStore()

	// Searching Monday itself at 11:00: 09:00 and 10:30 have passed, 12:00
	// is still bookable.
	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 2), FindNextOptions{
			IncludeSlots: true,
			Now:          time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 2), result.Date)
	assert.Equal(t, []model.TimeOfDay{model.MustParseTimeOfDay("12:00")}, result.Slots)
}

func TestFindNextAvailability_RangeReturnsEarliestInWindow(t *testing.T) {
	store := mondayClinicStore()

	// Searching ±3 days around Tuesday June 10th: Monday June 9th falls
	// inside the window and wins, even though it is before the pivot.
	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 10), FindNextOptions{
			RangeDays: 3,
			Now:       time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 9), result.Date)
}

func TestFindNextAvailability_RangeNeverYieldsPastDates(t *testing.T) {
	store := mondayClinicStore()

	// Pivot Tuesday June 3rd, ±3 days: Monday June 2nd is in the window but
	// already in the past, so the next Monday wins on a wider search and the
	// narrow window comes back empty.
	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 3), FindNextOptions{
			RangeDays: 3,
			Now:       time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFindNextAvailability_NoneBeforeYearEnd(t *testing.T) {
	store := mondayClinicStore()
	store.recurring = nil

	result, err := FindNextAvailability(context.Background(), store, nil, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	assert.Nil(t, result, "exhausting the horizon is not an error")
}

func TestFindNextAvailability_ClosureRuleBlocksDate(t *testing.T) {
	store := mondayClinicStore()
	cfg := &config.Config{
		ClosureRules: []string{"FREQ=DAILY;DTSTART=20250602T000000Z;COUNT=1"},
	}

	result, err := FindNextAvailability(context.Background(), store, nil, cfg, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), FindNextOptions{
			Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date(2025, 6, 9), result.Date)
}

func TestFindNextAvailability_ServesGridFromCache(t *testing.T) {
	store := mondayClinicStore()
	avCache := cache.New(cache.DefaultTTL)
	opts := FindNextOptions{Now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}

	_, err := FindNextAvailability(context.Background(), store, avCache, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), opts)
	require.NoError(t, err)
	firstCalls := store.appointmentCalls
	require.Greater(t, firstCalls, 0)

	_, err = FindNextAvailability(context.Background(), store, avCache, nil, zap.NewNop(),
		"doctor-1", date(2025, 6, 1), opts)
	require.NoError(t, err)
	assert.Equal(t, firstCalls, store.appointmentCalls, "second search should hit the cache")
}
