package telemetry

import "context"

// Sink receives one snapshot per mower per poll. Implementations:
// the InfluxDB writer in this package and the sqlite history store.
type Sink interface {
	Write(ctx context.Context, snap Snapshot) error
	Close() error
}

// Notifier is told about mowers entering an error state. Implemented
// by the Telegram notifier.
type Notifier interface {
	MowerAlert(ctx context.Context, snap Snapshot) error
}
