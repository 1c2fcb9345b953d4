// Package slotgrid turns effective shift definitions into ordered sets of
// bookable time-of-day slots. Everything here is pure: identical inputs
// always yield the identical grid, which is why grids are never persisted and
// can be recomputed (or cached) on every query.
package slotgrid

import (
	"math"
	"sort"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
)

// GraceMinutes is the buffer applied to today's grid: slots at or before
// now+GraceMinutes are dropped so a caller cannot book a slot that has
// effectively already passed.
const GraceMinutes = 5

// Generate emits the slots for a single shift definition.
//
// fixed_interval: start, start+step, … while strictly before end.
// patient_count: n slots spread evenly so the first sits on start and the
// last on end. The last slot landing exactly on end is accepted behavior.
func Generate(def model.ShiftDef) []model.TimeOfDay {
	switch def.Capacity.Kind {
	case model.CapacityFixedInterval:
		step := def.Capacity.StepMinutes
		if step <= 0 {
			return nil
		}
		var slots []model.TimeOfDay
		for t := def.Start; t < def.End; t = t.Add(step) {
			slots = append(slots, t)
		}
		return slots

	case model.CapacityPatientCount:
		n := def.Capacity.PatientCount
		if n <= 0 {
			return nil
		}
		if n == 1 {
			return []model.TimeOfDay{def.Start}
		}
		gap := math.Abs(float64(def.End-def.Start)) / float64(n-1)
		slots := make([]model.TimeOfDay, 0, n)
		for i := 0; i < n; i++ {
			slots = append(slots, def.Start.Add(int(math.Round(float64(i)*gap))))
		}
		return slots
	}

	return nil
}

// GenerateGrid merges the slots of every shift period of one date into a
// single sorted, deduplicated grid. When the date is today, slots inside the
// grace buffer are dropped.
func GenerateGrid(defs []model.ShiftDef, isToday bool, now model.TimeOfDay) []model.TimeOfDay {
	var merged []model.TimeOfDay
	for _, def := range defs {
		merged = append(merged, Generate(def)...)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })

	grid := merged[:0]
	var prev model.TimeOfDay = -1
	for _, slot := range merged {
		if slot == prev {
			continue
		}
		if isToday && slot <= now.Add(GraceMinutes) {
			prev = slot
			continue
		}
		grid = append(grid, slot)
		prev = slot
	}

	if len(grid) == 0 {
		return nil
	}
	return grid
}

// FreeSlots returns grid minus booked, preserving grid order.
func FreeSlots(grid, booked []model.TimeOfDay) []model.TimeOfDay {
	if len(grid) == 0 {
		return nil
	}
	taken := make(map[model.TimeOfDay]bool, len(booked))
	for _, b := range booked {
		taken[b] = true
	}

	var free []model.TimeOfDay
	for _, slot := range grid {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free
}
