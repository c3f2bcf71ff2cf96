package amc

// Headlight modes accepted by the settings action.
const (
	HeadlightAlwaysOn    = "ALWAYS_ON"
	HeadlightAlwaysOff   = "ALWAYS_OFF"
	HeadlightEveningOnly = "EVENING_ONLY"
)

// HeadlightModes lists the accepted headlight modes in CLI order.
var HeadlightModes = []string{HeadlightAlwaysOn, HeadlightAlwaysOff, HeadlightEveningOnly}

// Action is one command payload for the per-mower action endpoint. The
// API wraps it as {"data": {"type": ..., "attributes": {...}}}. Exactly
// nine variants exist; use the constructors below rather than building
// one by hand.
type Action struct {
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// StartOptions carries the optional Start parameters. Nil fields are
// omitted from the payload.
type StartOptions struct {
	WorkAreaID *int64
	Duration   *int // minutes
}

// Pause stops the mower where it stands.
func Pause() Action {
	return Action{Type: "Pause"}
}

// ResumeSchedule puts the mower back on its schedule.
func ResumeSchedule() Action {
	return Action{Type: "ResumeSchedule"}
}

// Start begins mowing, optionally in a specific work area and for a
// limited duration. Many backends require a duration when a work area
// is given.
func Start(opts StartOptions) Action {
	attrs := map[string]any{}
	if opts.WorkAreaID != nil {
		attrs["workAreaId"] = *opts.WorkAreaID
	}
	if opts.Duration != nil {
		attrs["duration"] = *opts.Duration
	}
	action := Action{Type: "Start"}
	if len(attrs) > 0 {
		action.Attributes = attrs
	}
	return action
}

// Park sends the mower to the charging station for the given number of
// minutes.
func Park(durationMinutes int) Action {
	return Action{
		Type:       "Park",
		Attributes: map[string]any{"duration": durationMinutes},
	}
}

// ParkUntilNextSchedule parks until the next scheduled window opens.
func ParkUntilNextSchedule() Action {
	return Action{Type: "ParkUntilNextSchedule"}
}

// ParkUntilFurtherNotice parks indefinitely, overriding the schedule.
func ParkUntilFurtherNotice() Action {
	return Action{Type: "ParkUntilFurtherNotice"}
}

// ConfirmError acknowledges a confirmable error on the mower.
func ConfirmError() Action {
	return Action{Type: "ConfirmError"}
}

// SetCuttingHeight changes the cutting height. The value scale is
// model-specific.
func SetCuttingHeight(height int) Action {
	return Action{
		Type:       "settings",
		Attributes: map[string]any{"cuttingHeight": height},
	}
}

// SetHeadlight changes the headlight mode. Callers must gate this on
// the headlights capability; see Client.SetHeadlightMode.
func SetHeadlight(mode string) Action {
	return Action{
		Type:       "settings",
		Attributes: map[string]any{"headlight": map[string]any{"mode": mode}},
	}
}

// ParkRequest maps the park flags to the right park variant: until-next
// wins over a supplied duration, and no duration means parking until
// further notice.
func ParkRequest(durationMinutes *int, untilNext bool) Action {
	switch {
	case untilNext:
		return ParkUntilNextSchedule()
	case durationMinutes == nil:
		return ParkUntilFurtherNotice()
	default:
		return Park(*durationMinutes)
	}
}
