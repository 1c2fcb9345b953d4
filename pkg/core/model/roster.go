package model

import "time"

// ShiftWindow is a roster shift's time range with the overnight convention
// resolved once at construction. A stored end time at or before the start
// time means the shift spills into the next calendar day.
type ShiftWindow struct {
	Start         TimeOfDay
	End           TimeOfDay
	SpansMidnight bool
}

// NewShiftWindow builds a window from raw start/end clock times, deriving the
// overnight flag.
func NewShiftWindow(start, end TimeOfDay) ShiftWindow {
	return ShiftWindow{
		Start:         start,
		End:           end,
		SpansMidnight: end <= start,
	}
}

// AnchorTo places the window on a planning date, returning absolute start and
// end instants. Overnight windows end on the following day.
func (w ShiftWindow) AnchorTo(date time.Time) (time.Time, time.Time) {
	start := w.Start.At(date)
	endDate := date
	if w.SpansMidnight {
		endDate = date.AddDate(0, 0, 1)
	}
	return start, w.End.At(endDate)
}

// Duration returns the length of the window.
func (w ShiftWindow) Duration() time.Duration {
	minutes := int(w.End) - int(w.Start)
	if w.SpansMidnight {
		minutes += MinutesPerDay
	}
	return time.Duration(minutes) * time.Minute
}

// RosterShift is one entry in the emergency-duty roster.
type RosterShift struct {
	ID           string
	ResourceID   string
	PlanningDate time.Time
	Window       ShiftWindow
	ShiftType    string
}
