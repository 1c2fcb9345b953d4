package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/db"
)

// GetAppointments retrieves the non-canceled appointments for a resource on
// one date, ordered by creation time. Earliest booking has the highest claim
// on early slots during rebalancing.
func (d *DB) GetAppointments(ctx context.Context, resourceID string, date time.Time) ([]model.Appointment, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, appointment_date, appointment_time, status, created_at
		FROM appointment
		WHERE resource_id = $1 AND appointment_date = $2 AND status <> 'canceled'
		ORDER BY created_at
	`, resourceID, model.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []model.Appointment
	for rows.Next() {
		var (
			appt    model.Appointment
			timeStr string
			status  string
		)
		if err := rows.Scan(&appt.ID, &appt.ResourceID, &appt.Date, &timeStr, &status, &appt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}

		appt.Time, err = model.ParseTimeOfDay(timeStr)
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", appt.ID, err)
		}
		appt.Status = model.AppointmentStatus(status)
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// GetFutureAppointmentDates retrieves the distinct dates from "from" onward
// that hold at least one non-canceled appointment for the resource. This
// bounds the rebalancer's lookahead.
func (d *DB) GetFutureAppointmentDates(ctx context.Context, resourceID string, from time.Time) ([]time.Time, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT appointment_date
		FROM appointment
		WHERE resource_id = $1 AND appointment_date >= $2 AND status <> 'canceled'
		ORDER BY appointment_date
	`, resourceID, model.DateOnly(from))
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan appointment date: %w", err)
		}
		dates = append(dates, date)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment dates: %w", err)
	}

	return dates, nil
}

// ApplyReassignments persists one date's new appointment times inside a
// single transaction. A failure rolls back every update of the batch so a
// date is never left half reassigned; other dates commit independently.
func (d *DB) ApplyReassignments(ctx context.Context, date time.Time, reassignments []db.Reassignment) error {
	if len(reassignments) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range reassignments {
		tag, err := tx.Exec(ctx, `
			UPDATE appointment
			SET appointment_time = $1
			WHERE id = $2 AND appointment_date = $3
		`, r.NewTime.Clock(), r.AppointmentID, model.DateOnly(date))
		if err != nil {
			return fmt.Errorf("failed to update appointment %s: %w", r.AppointmentID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("appointment %s not found on %s: %w",
				r.AppointmentID, date.Format("2006-01-02"), model.ErrNotFound)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reassignments: %w", err)
	}

	return nil
}
