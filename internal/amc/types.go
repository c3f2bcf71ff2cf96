package amc

// Mower is one device as returned by the /v1/mowers list endpoint.
// Everything here is read-only from the client's perspective and
// fetched fresh on every invocation.
type Mower struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

// Attributes is the JSON:API attribute block of a mower.
type Attributes struct {
	System       System       `json:"system"`
	Capabilities Capabilities `json:"capabilities"`
	WorkAreas    []WorkArea   `json:"workAreas"`
	Mower        MowerState   `json:"mower"`
	Battery      Battery      `json:"battery"`
	Positions    []Position   `json:"positions"`
	Settings     Settings     `json:"settings"`
	Metadata     Metadata     `json:"metadata"`
}

type System struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type Capabilities struct {
	Headlights      bool `json:"headlights"`
	WorkAreas       bool `json:"workAreas"`
	Position        bool `json:"position"`
	StayOutZones    bool `json:"stayOutZones"`
	CanConfirmError bool `json:"canConfirmError"`
}

type WorkArea struct {
	ID   int64  `json:"workAreaId"`
	Name string `json:"name"`
}

type MowerState struct {
	Activity  string `json:"activity"`
	State     string `json:"state"`
	Mode      string `json:"mode"`
	ErrorCode int    `json:"errorCode"`
}

type Battery struct {
	BatteryPercent int `json:"batteryPercent"`
}

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Settings struct {
	CuttingHeight int       `json:"cuttingHeight"`
	Headlight     Headlight `json:"headlight"`
}

type Headlight struct {
	Mode string `json:"mode"`
}

type Metadata struct {
	Connected       bool  `json:"connected"`
	StatusTimestamp int64 `json:"statusTimestamp"`
}

// DisplayName returns the user-visible name of a mower, falling back to
// the id for unnamed devices.
func (m *Mower) DisplayName() string {
	if m.Attributes.System.Name != "" {
		return m.Attributes.System.Name
	}
	return m.ID
}
