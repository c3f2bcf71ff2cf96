package amc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestParkRequest(t *testing.T) {
	tests := []struct {
		name      string
		duration  *int
		untilNext bool
		wantType  string
		wantAttrs map[string]any
	}{
		{
			name:     "no duration parks until further notice",
			wantType: "ParkUntilFurtherNotice",
		},
		{
			name:      "duration",
			duration:  intPtr(30),
			wantType:  "Park",
			wantAttrs: map[string]any{"duration": 30},
		},
		{
			name:      "until-next wins over duration",
			duration:  intPtr(30),
			untilNext: true,
			wantType:  "ParkUntilNextSchedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := ParkRequest(tt.duration, tt.untilNext)
			assert.Equal(t, tt.wantType, action.Type)
			assert.Equal(t, tt.wantAttrs, action.Attributes)
		})
	}
}

func TestStart(t *testing.T) {
	t.Run("bare start has no attributes", func(t *testing.T) {
		action := Start(StartOptions{})
		assert.Equal(t, "Start", action.Type)
		assert.Nil(t, action.Attributes)
	})

	t.Run("work area and duration", func(t *testing.T) {
		action := Start(StartOptions{WorkAreaID: int64Ptr(7), Duration: intPtr(45)})
		assert.Equal(t, map[string]any{
			"workAreaId": int64(7),
			"duration":   45,
		}, action.Attributes)
	})
}
