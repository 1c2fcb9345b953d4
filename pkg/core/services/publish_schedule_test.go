package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/internal/config"
)

type mockSheetsWriter struct {
	cleared      []string
	updatedRange string
	values       [][]interface{}
}

func (m *mockSheetsWriter) ClearValues(spreadsheetID, sheetRange string) error {
	m.cleared = append(m.cleared, spreadsheetID+"/"+sheetRange)
	return nil
}

func (m *mockSheetsWriter) UpdateValues(spreadsheetID, sheetRange string, values [][]interface{}) error {
	m.updatedRange = sheetRange
	m.values = values
	return nil
}

func TestPublishSchedule(t *testing.T) {
	store := mondayClinicStore()
	cfg := &config.Config{
		ScheduleSheetID:  "sheet-1",
		ScheduleTab:      "Week",
		PublishResources: []string{"doctor-1"},
	}
	sheets := &mockSheetsWriter{}
	weekStart := date(2025, 6, 2) // Monday

	published, err := PublishSchedule(context.Background(), store, sheets, cfg, zap.NewNop(),
		weekStart, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, published.Rows, 7, "one row per day of the week")

	monday := published.Rows[0]
	assert.Equal(t, "Mon Jun 02 2025", monday.Date)
	assert.Equal(t, "doctor-1", monday.ResourceID)
	assert.Equal(t, "morning", monday.Period)
	assert.Equal(t, "09:00, 10:30, 12:00", monday.FreeSlots)

	tuesday := published.Rows[1]
	assert.Empty(t, tuesday.Period)
	assert.Empty(t, tuesday.FreeSlots)

	assert.Equal(t, []string{"sheet-1/Week"}, sheets.cleared)
	assert.Equal(t, "Week!A1:D8", sheets.updatedRange)
	require.Len(t, sheets.values, 8, "header plus seven day rows")
	assert.Equal(t, []interface{}{"Date", "Resource", "Period", "Free slots"}, sheets.values[0])
	assert.Equal(t, []interface{}{"Mon Jun 02 2025", "doctor-1", "morning", "09:00, 10:30, 12:00"}, sheets.values[1])
}

func TestPublishSchedule_DryRun(t *testing.T) {
	store := mondayClinicStore()
	cfg := &config.Config{PublishResources: []string{"doctor-1"}}

	published, err := PublishSchedule(context.Background(), store, nil, cfg, zap.NewNop(),
		date(2025, 6, 2), time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Len(t, published.Rows, 7)
}

func TestPublishSchedule_NoResourcesConfigured(t *testing.T) {
	store := mondayClinicStore()

	_, err := PublishSchedule(context.Background(), store, nil, &config.Config{}, zap.NewNop(),
		date(2025, 6, 2), time.Now())

	assert.Error(t, err)
}
