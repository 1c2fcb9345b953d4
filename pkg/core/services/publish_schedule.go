package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/internal/config"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// SheetsWriter is the slice of the Google Sheets client the publisher needs.
type SheetsWriter interface {
	ClearValues(spreadsheetID, sheetRange string) error
	UpdateValues(spreadsheetID, sheetRange string, values [][]interface{}) error
}

// ScheduleRow is one line of the published availability grid.
type ScheduleRow struct {
	Date       string // "Mon Jan 02 2006"
	ResourceID string
	Period     string
	FreeSlots  string // comma-joined "HH:MM" values, empty when none
}

// PublishedSchedule is the display payload written to the schedule sheet.
type PublishedSchedule struct {
	WeekStart time.Time
	Rows      []ScheduleRow
}

// PublishSchedule builds a week of free-slot availability for the configured
// resources and writes it to the schedule spreadsheet. A nil writer builds
// the payload without publishing (dry run).
func PublishSchedule(
	ctx context.Context,
	store AvailabilityStore,
	sheets SheetsWriter,
	cfg *config.Config,
	logger *zap.Logger,
	weekStart time.Time,
	now time.Time,
) (*PublishedSchedule, error) {
	if len(cfg.PublishResources) == 0 {
		return nil, fmt.Errorf("no publish resources configured")
	}
	if now.IsZero() {
		now = time.Now()
	}
	weekStart = model.DateOnly(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	logger.Debug("Building schedule payload",
		zap.String("week_start", weekStart.Format("2006-01-02")),
		zap.Int("resources", len(cfg.PublishResources)))

	published := &PublishedSchedule{WeekStart: weekStart}

	for _, resourceID := range cfg.PublishResources {
		resolver, err := newDayResolver(ctx, store, cfg, resourceID, weekStart, weekEnd, now)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", resourceID, err)
		}

		for d := weekStart; !d.After(weekEnd); d = d.AddDate(0, 0, 1) {
			availability, _, err := resolver.dateAvailability(ctx, d, true)
			if err != nil {
				return nil, fmt.Errorf("resource %s on %s: %w", resourceID, d.Format("2006-01-02"), err)
			}

			row := ScheduleRow{
				Date:       d.Format("Mon Jan 02 2006"),
				ResourceID: resourceID,
			}
			if availability != nil {
				row.Period = string(availability.Period)
				slots := make([]string, 0, len(availability.Slots))
				for _, slot := range availability.Slots {
					slots = append(slots, slot.String())
				}
				row.FreeSlots = strings.Join(slots, ", ")
			}
			published.Rows = append(published.Rows, row)
		}
	}

	if sheets == nil {
		logger.Info("Dry run: schedule payload built but not published",
			zap.Int("rows", len(published.Rows)))
		return published, nil
	}

	values := [][]interface{}{
		{"Date", "Resource", "Period", "Free slots"},
	}
	for _, row := range published.Rows {
		values = append(values, []interface{}{row.Date, row.ResourceID, row.Period, row.FreeSlots})
	}

	sheetRange := fmt.Sprintf("%s!A1:D%d", cfg.ScheduleTab, len(values))
	if err := sheets.ClearValues(cfg.ScheduleSheetID, cfg.ScheduleTab); err != nil {
		return nil, fmt.Errorf("failed to clear schedule sheet: %w", err)
	}
	if err := sheets.UpdateValues(cfg.ScheduleSheetID, sheetRange, values); err != nil {
		return nil, fmt.Errorf("failed to write schedule sheet: %w", err)
	}

	logger.Info("Schedule published",
		zap.String("spreadsheet_id", cfg.ScheduleSheetID),
		zap.Int("rows", len(published.Rows)))

	return published, nil
}
