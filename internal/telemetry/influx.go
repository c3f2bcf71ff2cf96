package telemetry

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
)

// DefaultMeasurement is the InfluxDB measurement snapshots are written
// under.
const DefaultMeasurement = "automower_status"

// InfluxConfig contains InfluxDB v2 sink settings
type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// InfluxSink writes snapshots to an InfluxDB v2 bucket, one point per
// mower per poll, tagged by mower id and name.
type InfluxSink struct {
	client      influxdb2.Client
	write       influxapi.WriteAPIBlocking
	measurement string
}

// NewInfluxSink creates an InfluxDB sink. Callers are expected to have
// checked that a token is configured; an unauthenticated sink would
// only produce write errors every poll.
func NewInfluxSink(config InfluxConfig) *InfluxSink {
	if config.Measurement == "" {
		config.Measurement = DefaultMeasurement
	}
	client := influxdb2.NewClient(config.URL, config.Token)
	return &InfluxSink{
		client:      client,
		write:       client.WriteAPIBlocking(config.Org, config.Bucket),
		measurement: config.Measurement,
	}
}

// Write sends one snapshot as an InfluxDB point.
func (s *InfluxSink) Write(ctx context.Context, snap Snapshot) error {
	tags := map[string]string{
		"mower_id": snap.MowerID,
		"name":     snap.Name,
	}
	fields := map[string]any{
		"battery_percent": float64(snap.BatteryPercent),
		"cutting_height":  float64(snap.CuttingHeight),
		"connected":       snap.Connected,
		"activity":        snap.Activity,
		"state":           snap.State,
		"mode":            snap.Mode,
		"activity_num":    snap.ActivityCode,
		"state_num":       snap.StateCode,
		"mode_num":        snap.ModeCode,
	}
	if snap.HasPosition {
		fields["lat"] = snap.Latitude
		fields["lng"] = snap.Longitude
	}

	point := influxdb2.NewPoint(s.measurement, tags, fields, snap.Time)
	return s.write.WritePoint(ctx, point)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
