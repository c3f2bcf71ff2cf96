// Package telemetry polls mower status into console output and the
// configured sinks.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/Juhni/RoopeRobotti/internal/amc"
)

const minInterval = time.Second

// MowerLister fetches the account's mowers. Implemented by amc.Client.
type MowerLister interface {
	ListMowers(ctx context.Context) ([]amc.Mower, error)
}

// Poller periodically fetches mower status, prints one summary line per
// mower, and fans each snapshot out to the sinks. A failed iteration is
// logged and the loop keeps going; only context cancellation stops it.
type Poller struct {
	lister   MowerLister
	sinks    []Sink
	notifier Notifier // may be nil
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// lastErrState tracks which mowers were already in an error state
	// so each error produces one alert, not one per poll.
	lastErrState map[string]bool
}

// NewPoller creates a poller. The interval is floored at one second.
func NewPoller(lister MowerLister, sinks []Sink, notifier Notifier, interval time.Duration, logger *slog.Logger) *Poller {
	if interval < minInterval {
		interval = minInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		lister:       lister,
		sinks:        sinks,
		notifier:     notifier,
		interval:     interval,
		logger:       logger,
		now:          time.Now,
		lastErrState: make(map[string]bool),
	}
}

// RunOnce performs a single poll. The returned code follows the CLI
// convention: 0 for a normal snapshot, 1 when the fetch failed or the
// account has no mowers. The error, when non-nil, carries the fetch
// failure for the caller to log or propagate.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	mowers, err := p.lister.ListMowers(ctx)
	if err != nil {
		return 1, err
	}

	if len(mowers) == 0 {
		p.logger.Warn("no mowers returned; is this account linked to any mowers?")
		return 1, nil
	}

	now := p.now().UTC()
	for i := range mowers {
		snap := Capture(&mowers[i], now)
		p.logger.Info(snap.Summary())

		for _, sink := range p.sinks {
			if err := sink.Write(ctx, snap); err != nil {
				p.logger.Error("sink write failed",
					"mower_id", snap.MowerID,
					"error", err)
			}
		}

		p.alert(ctx, snap)
	}

	return 0, nil
}

// Run polls until the context is cancelled, sleeping the configured
// interval between iterations whether or not the previous one
// succeeded.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if _, err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("polling error", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) alert(ctx context.Context, snap Snapshot) {
	if p.notifier == nil {
		return
	}

	inError := snap.InError()
	if inError && !p.lastErrState[snap.MowerID] {
		if err := p.notifier.MowerAlert(ctx, snap); err != nil {
			p.logger.Error("failed to send alert", "mower_id", snap.MowerID, "error", err)
		}
	}
	p.lastErrState[snap.MowerID] = inError
}
