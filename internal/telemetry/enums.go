package telemetry

import "strings"

// enumCodes maps the API's activity/state/mode strings to stable small
// integers for numeric storage. The codes are part of the stored data
// contract; do not renumber.
var enumCodes = map[string]int{
	"UNKNOWN":               0,
	"PARKED":                1,
	"PAUSED":                2,
	"STOPPED":               3,
	"IN_OPERATION":          4,
	"MOWING":                5,
	"GOING_HOME":            6,
	"LEAVING":               7,
	"CHARGING":              8,
	"ERROR":                 9,
	"SLEEPING":              10,
	"FATAL_ERROR":           11,
	"RESTRICTED":            12,
	"DISCONNECTED":          13,
	"MANUAL_START_REQUIRED": 14,
	"AUTO":                  20,
	"MAIN_AREA":             21,
	"SECONDARY_AREA":        22,
	"HOME":                  23,
}

// EnumCode returns the stable integer code for an activity, state, or
// mode string. Unrecognized values map to 0.
func EnumCode(value string) int {
	return enumCodes[strings.ToUpper(value)]
}
