package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

func scanRosterShift(id, resourceID string, planningDate time.Time, startStr, endStr, shiftType string) (model.RosterShift, error) {
	start, err := model.ParseTimeOfDay(startStr)
	if err != nil {
		return model.RosterShift{}, fmt.Errorf("failed to parse shift start: %w", err)
	}
	end, err := model.ParseTimeOfDay(endStr)
	if err != nil {
		return model.RosterShift{}, fmt.Errorf("failed to parse shift end: %w", err)
	}

	return model.RosterShift{
		ID:           id,
		ResourceID:   resourceID,
		PlanningDate: planningDate,
		Window:       model.NewShiftWindow(start, end),
		ShiftType:    shiftType,
	}, nil
}

// GetRosterShifts retrieves the active roster shifts for a resource planned
// within [from, to]. excludeID filters out the shift being updated.
func (d *DB) GetRosterShifts(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]model.RosterShift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, planning_date, shift_start_time, shift_end_time, shift_type
		FROM roster_shift
		WHERE resource_id = $1 AND planning_date BETWEEN $2 AND $3 AND is_active
		  AND ($4 = '' OR id <> $4::uuid)
		ORDER BY planning_date, shift_start_time
	`, resourceID, model.DateOnly(from), model.DateOnly(to), excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster shifts: %w", err)
	}
	defer rows.Close()

	return collectRosterShifts(rows)
}

// GetRosterShiftsForDate retrieves every active roster shift planned on the
// given date, across all resources.
func (d *DB) GetRosterShiftsForDate(ctx context.Context, date time.Time) ([]model.RosterShift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, planning_date, shift_start_time, shift_end_time, shift_type
		FROM roster_shift
		WHERE planning_date = $1 AND is_active
		ORDER BY shift_start_time
	`, model.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query roster shifts for date: %w", err)
	}
	defer rows.Close()

	return collectRosterShifts(rows)
}

func collectRosterShifts(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.RosterShift, error) {
	var shifts []model.RosterShift
	for rows.Next() {
		var (
			id, resourceID, startStr, endStr, shiftType string
			planningDate                                time.Time
		)
		if err := rows.Scan(&id, &resourceID, &planningDate, &startStr, &endStr, &shiftType); err != nil {
			return nil, fmt.Errorf("failed to scan roster shift: %w", err)
		}

		shift, err := scanRosterShift(id, resourceID, planningDate, startStr, endStr, shiftType)
		if err != nil {
			return nil, fmt.Errorf("roster shift %s: %w", id, err)
		}
		shifts = append(shifts, shift)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster shifts: %w", err)
	}

	return shifts, nil
}

// InsertRosterShift persists a new roster shift. Conflict checking happens in
// the service before this call (check-then-act; the narrow race is accepted
// for human-paced roster edits).
func (d *DB) InsertRosterShift(ctx context.Context, shift model.RosterShift) error {
	id := shift.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO roster_shift
			(id, resource_id, planning_date, shift_start_time, shift_end_time, shift_type, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, id, shift.ResourceID, model.DateOnly(shift.PlanningDate),
		shift.Window.Start.Clock(), shift.Window.End.Clock(), shift.ShiftType)
	if err != nil {
		return fmt.Errorf("failed to insert roster shift: %w", err)
	}

	return nil
}
