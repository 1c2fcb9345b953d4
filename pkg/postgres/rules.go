package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/db"
)

// capacityFromColumns rebuilds the tagged capacity mode from its flattened
// column representation.
func capacityFromColumns(kind string, stepMinutes, patientCount *int) (model.CapacityMode, error) {
	switch model.CapacityKind(kind) {
	case model.CapacityFixedInterval:
		if stepMinutes == nil {
			return model.CapacityMode{}, fmt.Errorf("fixed_interval rule is missing step_minutes")
		}
		return model.FixedInterval(*stepMinutes), nil
	case model.CapacityPatientCount:
		if patientCount == nil {
			return model.CapacityMode{}, fmt.Errorf("patient_count rule is missing patient_count")
		}
		return model.PatientCount(*patientCount), nil
	}
	return model.CapacityMode{}, fmt.Errorf("unknown capacity kind %q", kind)
}

// capacityToColumns flattens a capacity mode into its column representation.
func capacityToColumns(c model.CapacityMode) (string, *int, *int) {
	switch c.Kind {
	case model.CapacityFixedInterval:
		step := c.StepMinutes
		return string(c.Kind), &step, nil
	case model.CapacityPatientCount:
		count := c.PatientCount
		return string(c.Kind), nil, &count
	}
	return string(c.Kind), nil, nil
}

func scanShiftDef(period, startTime, endTime, capacityKind string, stepMinutes, patientCount *int) (model.ShiftDef, error) {
	start, err := model.ParseTimeOfDay(startTime)
	if err != nil {
		return model.ShiftDef{}, fmt.Errorf("failed to parse start time: %w", err)
	}
	end, err := model.ParseTimeOfDay(endTime)
	if err != nil {
		return model.ShiftDef{}, fmt.Errorf("failed to parse end time: %w", err)
	}
	capacity, err := capacityFromColumns(capacityKind, stepMinutes, patientCount)
	if err != nil {
		return model.ShiftDef{}, err
	}

	return model.ShiftDef{
		Period:   model.ShiftPeriod(period),
		Start:    start,
		End:      end,
		Capacity: capacity,
	}, nil
}

// GetRecurringRules retrieves the active recurring rules for a resource on
// one weekday.
func (d *DB) GetRecurringRules(ctx context.Context, resourceID string, weekday time.Weekday) ([]model.RecurringShiftRule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, weekday, shift_period, start_time, end_time,
		       capacity_kind, step_minutes, patient_count, is_active
		FROM recurring_shift_rule
		WHERE resource_id = $1 AND weekday = $2 AND is_active
		ORDER BY start_time
	`, resourceID, int(weekday))
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []model.RecurringShiftRule
	for rows.Next() {
		var (
			rule                      model.RecurringShiftRule
			wd                        int
			period, startStr, endStr  string
			capacityKind              string
			stepMinutes, patientCount *int
		)
		if err := rows.Scan(&rule.ID, &rule.ResourceID, &wd, &period, &startStr, &endStr,
			&capacityKind, &stepMinutes, &patientCount, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan recurring rule: %w", err)
		}

		rule.Weekday = time.Weekday(wd)
		rule.Shift, err = scanShiftDef(period, startStr, endStr, capacityKind, stepMinutes, patientCount)
		if err != nil {
			return nil, fmt.Errorf("recurring rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rules: %w", err)
	}

	return rules, nil
}

// GetOverrideRules retrieves the active date-override rules for a resource on
// one calendar date.
func (d *DB) GetOverrideRules(ctx context.Context, resourceID string, date time.Time) ([]model.DateOverrideRule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, resource_id, rule_date, shift_period, start_time, end_time,
		       capacity_kind, step_minutes, patient_count, is_active
		FROM date_override_rule
		WHERE resource_id = $1 AND rule_date = $2 AND is_active
		ORDER BY start_time
	`, resourceID, model.DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query override rules: %w", err)
	}
	defer rows.Close()

	var rules []model.DateOverrideRule
	for rows.Next() {
		var (
			rule                      model.DateOverrideRule
			period, startStr, endStr  string
			capacityKind              string
			stepMinutes, patientCount *int
		)
		if err := rows.Scan(&rule.ID, &rule.ResourceID, &rule.Date, &period, &startStr, &endStr,
			&capacityKind, &stepMinutes, &patientCount, &rule.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan override rule: %w", err)
		}

		rule.Shift, err = scanShiftDef(period, startStr, endStr, capacityKind, stepMinutes, patientCount)
		if err != nil {
			return nil, fmt.Errorf("override rule %s: %w", rule.ID, err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating override rules: %w", err)
	}

	return rules, nil
}

// ReplaceRules swaps a resource's full shift template in one transaction:
// delete-all-then-insert.
func (d *DB) ReplaceRules(ctx context.Context, resourceID string, replacement db.RuleReplacement) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recurring_shift_rule WHERE resource_id = $1`, resourceID); err != nil {
		return fmt.Errorf("failed to delete recurring rules: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM date_override_rule WHERE resource_id = $1`, resourceID); err != nil {
		return fmt.Errorf("failed to delete override rules: %w", err)
	}

	for _, rule := range replacement.Recurring {
		id := rule.ID
		if id == "" {
			id = uuid.New().String()
		}
		kind, step, count := capacityToColumns(rule.Shift.Capacity)

		_, err := tx.Exec(ctx, `
			INSERT INTO recurring_shift_rule
				(id, resource_id, weekday, shift_period, start_time, end_time,
				 capacity_kind, step_minutes, patient_count, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, id, resourceID, int(rule.Weekday), string(rule.Shift.Period),
			rule.Shift.Start.Clock(), rule.Shift.End.Clock(), kind, step, count, rule.IsActive)
		if err != nil {
			return fmt.Errorf("failed to insert recurring rule: %w", err)
		}
	}

	for _, rule := range replacement.Overrides {
		id := rule.ID
		if id == "" {
			id = uuid.New().String()
		}
		kind, step, count := capacityToColumns(rule.Shift.Capacity)

		_, err := tx.Exec(ctx, `
			INSERT INTO date_override_rule
				(id, resource_id, rule_date, shift_period, start_time, end_time,
				 capacity_kind, step_minutes, patient_count, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, id, resourceID, model.DateOnly(rule.Date), string(rule.Shift.Period),
			rule.Shift.Start.Clock(), rule.Shift.End.Clock(), kind, step, count, rule.IsActive)
		if err != nil {
			return fmt.Errorf("failed to insert override rule: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rule replacement: %w", err)
	}

	return nil
}

// DuplicateRules copies one resource's weekly template onto another resource,
// replacing the target's existing rules.
func (d *DB) DuplicateRules(ctx context.Context, fromResourceID, toResourceID string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recurring_shift_rule WHERE resource_id = $1`, toResourceID); err != nil {
		return fmt.Errorf("failed to delete target recurring rules: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO recurring_shift_rule
			(id, resource_id, weekday, shift_period, start_time, end_time,
			 capacity_kind, step_minutes, patient_count, is_active)
		SELECT gen_random_uuid(), $2, weekday, shift_period, start_time, end_time,
		       capacity_kind, step_minutes, patient_count, is_active
		FROM recurring_shift_rule
		WHERE resource_id = $1 AND is_active
	`, fromResourceID, toResourceID)
	if err != nil {
		return fmt.Errorf("failed to copy recurring rules: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rule duplication: %w", err)
	}

	return nil
}
