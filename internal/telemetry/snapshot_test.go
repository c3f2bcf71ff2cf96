package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Juhni/RoopeRobotti/internal/amc"
)

func TestEnumCode(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"PARKED", 1},
		{"IN_OPERATION", 4},
		{"FATAL_ERROR", 11},
		{"HOME", 23},
		{"charging", 8}, // case-insensitive
		{"SOMETHING_NEW", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnumCode(tt.value), "EnumCode(%q)", tt.value)
	}
}

func TestCapture(t *testing.T) {
	mower := amc.Mower{ID: "m1"}
	mower.Attributes.System.Name = "Roope"
	mower.Attributes.Mower = amc.MowerState{Activity: "GOING_HOME", State: "IN_OPERATION", Mode: "AUTO"}
	mower.Attributes.Battery.BatteryPercent = 42
	mower.Attributes.Positions = []amc.Position{
		{Latitude: 60.1, Longitude: 24.9},
		{Latitude: 60.2, Longitude: 24.8},
	}
	mower.Attributes.Settings.CuttingHeight = 6
	mower.Attributes.Metadata.Connected = true

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snap := Capture(&mower, now)

	assert.Equal(t, "m1", snap.MowerID)
	assert.Equal(t, "Roope", snap.Name)
	assert.Equal(t, now, snap.Time)
	assert.Equal(t, 42, snap.BatteryPercent)
	assert.Equal(t, 6, snap.ActivityCode)
	assert.Equal(t, 4, snap.StateCode)
	assert.Equal(t, 20, snap.ModeCode)
	assert.True(t, snap.HasPosition)
	assert.Equal(t, 60.2, snap.Latitude)
	assert.Equal(t, 24.8, snap.Longitude)

	assert.Equal(t,
		"name=Roope | battery=42% | state=IN_OPERATION | activity=GOING_HOME | mode=AUTO | pos=(60.20000,24.80000)",
		snap.Summary())
}

func TestCapture_NoNameNoPosition(t *testing.T) {
	mower := amc.Mower{ID: "m2"}
	mower.Attributes.Mower.State = "PARKED"

	snap := Capture(&mower, time.Now())
	assert.Equal(t, "m2", snap.Name, "unnamed mowers fall back to the id")
	assert.False(t, snap.HasPosition)
	assert.NotContains(t, snap.Summary(), "pos=")
}

func TestSnapshot_InError(t *testing.T) {
	assert.True(t, Snapshot{State: "ERROR"}.InError())
	assert.True(t, Snapshot{State: "FATAL_ERROR"}.InError())
	assert.False(t, Snapshot{State: "IN_OPERATION"}.InError())
}
