package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Juhni/RoopeRobotti/internal/notify"
	"github.com/Juhni/RoopeRobotti/internal/storage/sqlite"
	"github.com/Juhni/RoopeRobotti/internal/telemetry"
)

func statusCmd(opts *rootOptions) *cobra.Command {
	var (
		once        bool
		pollSeconds int
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll mower status into the console and configured sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}

			seconds := a.cfg.Poll.Seconds
			if cmd.Flags().Changed("poll-seconds") {
				seconds = pollSeconds
			}

			sinks, notifier, err := buildSinks(a)
			if err != nil {
				return err
			}
			defer func() {
				for _, sink := range sinks {
					sink.Close()
				}
			}()

			poller := telemetry.NewPoller(a.client, sinks, notifier,
				time.Duration(seconds)*time.Second, a.logger)

			ctx := cmd.Context()
			if once {
				code, err := poller.RunOnce(ctx)
				if code != 0 {
					return &exitCodeError{code: code, err: err}
				}
				return nil
			}

			err = poller.Run(ctx)
			if errors.Is(err, context.Canceled) {
				a.logger.Info("polling stopped")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Fetch one snapshot and exit")
	cmd.Flags().IntVar(&pollSeconds, "poll-seconds", 0, "Override POLL_SECONDS from the environment")
	return cmd
}

// buildSinks assembles the optional telemetry outputs from config.
// Each one is independently enabled by its own settings; with nothing
// configured the poller still prints summary lines.
func buildSinks(a *app) ([]telemetry.Sink, telemetry.Notifier, error) {
	var sinks []telemetry.Sink

	if a.cfg.Influx.Token != "" {
		sinks = append(sinks, telemetry.NewInfluxSink(telemetry.InfluxConfig{
			URL:    a.cfg.Influx.URL,
			Token:  a.cfg.Influx.Token,
			Org:    a.cfg.Influx.Org,
			Bucket: a.cfg.Influx.Bucket,
		}))
	} else {
		a.logger.Info("InfluxDB sink disabled (no token configured)")
	}

	if a.cfg.History.DBPath != "" {
		store, err := sqlite.New(a.cfg.History.DBPath)
		if err != nil {
			for _, sink := range sinks {
				sink.Close()
			}
			return nil, nil, err
		}
		sinks = append(sinks, store)
	}

	var notifier telemetry.Notifier
	if a.cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a.logger)
		if err != nil {
			// Alerts are best-effort; a bad bot token should not stop
			// status polling.
			a.logger.Warn("telegram alerts disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	return sinks, notifier, nil
}
