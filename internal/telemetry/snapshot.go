package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/Juhni/RoopeRobotti/internal/amc"
)

// Snapshot is one mower's status at one poll, flattened for storage.
type Snapshot struct {
	MowerID string
	Name    string
	Time    time.Time

	BatteryPercent int
	Activity       string
	State          string
	Mode           string
	ActivityCode   int
	StateCode      int
	ModeCode       int
	HasPosition    bool
	Latitude       float64
	Longitude      float64
	CuttingHeight  int
	Connected      bool
}

// Capture flattens one mower into a snapshot taken at now.
func Capture(mower *amc.Mower, now time.Time) Snapshot {
	attrs := &mower.Attributes

	snap := Snapshot{
		MowerID:        mower.ID,
		Name:           mower.DisplayName(),
		Time:           now,
		BatteryPercent: attrs.Battery.BatteryPercent,
		Activity:       attrs.Mower.Activity,
		State:          attrs.Mower.State,
		Mode:           attrs.Mower.Mode,
		ActivityCode:   EnumCode(attrs.Mower.Activity),
		StateCode:      EnumCode(attrs.Mower.State),
		ModeCode:       EnumCode(attrs.Mower.Mode),
		CuttingHeight:  attrs.Settings.CuttingHeight,
		Connected:      attrs.Metadata.Connected,
	}

	if len(attrs.Positions) > 0 {
		pos := attrs.Positions[len(attrs.Positions)-1]
		snap.HasPosition = true
		snap.Latitude = pos.Latitude
		snap.Longitude = pos.Longitude
	}

	return snap
}

// Summary renders the one-line human-readable form printed per mower
// per poll.
func (s Snapshot) Summary() string {
	parts := []string{
		fmt.Sprintf("name=%s", s.Name),
		fmt.Sprintf("battery=%d%%", s.BatteryPercent),
		fmt.Sprintf("state=%s", s.State),
		fmt.Sprintf("activity=%s", s.Activity),
		fmt.Sprintf("mode=%s", s.Mode),
	}
	if s.HasPosition {
		parts = append(parts, fmt.Sprintf("pos=(%.5f,%.5f)", s.Latitude, s.Longitude))
	}
	return strings.Join(parts, " | ")
}

// InError reports whether the snapshot shows an error condition worth
// alerting on.
func (s Snapshot) InError() bool {
	return s.State == "ERROR" || s.State == "FATAL_ERROR"
}
