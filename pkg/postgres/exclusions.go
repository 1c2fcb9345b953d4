package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// GetExclusions retrieves exclusion periods overlapping [from, to] that apply
// to the resource, including clinic-wide ones (NULL resource_id).
func (d *DB) GetExclusions(ctx context.Context, resourceID string, from, to time.Time) ([]model.ExclusionPeriod, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, start_date, end_date, exclusion_type,
		       override_start, override_end, override_capacity_kind,
		       override_step_minutes, override_patient_count
		FROM exclusion_period
		WHERE (resource_id = $1 OR resource_id IS NULL)
		  AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date
	`, resourceID, model.DateOnly(from), model.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusions: %w", err)
	}
	defer rows.Close()

	var exclusions []model.ExclusionPeriod
	for rows.Next() {
		var (
			exclusion                model.ExclusionPeriod
			scopedResource           *string
			exclusionType            string
			overrideStart            *string
			overrideEnd              *string
			overrideKind             *string
			overrideStep, overrideN  *int
		)
		if err := rows.Scan(&exclusion.ID, &scopedResource, &exclusion.StartDate, &exclusion.EndDate,
			&exclusionType, &overrideStart, &overrideEnd, &overrideKind, &overrideStep, &overrideN); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}

		if scopedResource == nil {
			exclusion.Scope = model.ScopeAll()
		} else {
			exclusion.Scope = model.ScopeResource(*scopedResource)
		}
		exclusion.Type = model.ExclusionType(exclusionType)

		if exclusion.Type == model.ExclusionLimited {
			if overrideStart == nil || overrideEnd == nil || overrideKind == nil {
				return nil, fmt.Errorf("limited exclusion %s is missing its shift override", exclusion.ID)
			}
			def, err := scanShiftDef(string(model.PeriodMorning), *overrideStart, *overrideEnd,
				*overrideKind, overrideStep, overrideN)
			if err != nil {
				return nil, fmt.Errorf("exclusion %s: %w", exclusion.ID, err)
			}
			exclusion.Override = &def
		}

		exclusions = append(exclusions, exclusion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exclusions: %w", err)
	}

	return exclusions, nil
}

// IsMonthAvailable reports whether the resource has been explicitly flagged
// available for the month. A missing row means unavailable.
func (d *DB) IsMonthAvailable(ctx context.Context, resourceID string, year int, month time.Month) (bool, error) {
	var available bool
	err := d.pool.QueryRow(ctx, `
		SELECT is_available
		FROM month_availability
		WHERE resource_id = $1 AND year = $2 AND month = $3
	`, resourceID, year, int(month)).Scan(&available)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query month availability: %w", err)
	}

	return available, nil
}
