package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "00:00", want: 0},
		{input: "09:30", want: 9*60 + 30},
		{input: "23:59", want: 23*60 + 59},
		{input: "08:15:45", want: 8*60 + 15}, // seconds discarded
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "not a time", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestTimeOfDay_Rendering(t *testing.T) {
	tod := MustParseTimeOfDay("09:05")
	assert.Equal(t, "09:05", tod.String())
	assert.Equal(t, "09:05:00", tod.Clock())
}

func TestTimeOfDay_AddAndAt(t *testing.T) {
	tod := MustParseTimeOfDay("11:45")
	assert.Equal(t, MustParseTimeOfDay("12:00"), tod.Add(15))

	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	at := tod.At(date)
	assert.Equal(t, time.Date(2025, 6, 2, 11, 45, 0, 0, time.UTC), at)
	assert.Equal(t, tod, TimeOfDayFromClock(at))
}
