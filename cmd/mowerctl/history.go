package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Juhni/RoopeRobotti/internal/storage/sqlite"
	"github.com/Juhni/RoopeRobotti/internal/telemetry"
)

func historyCmd(opts *rootOptions) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "history [mower]",
		Short: "Show locally stored status samples for one mower",
		Long: "Reads the local status-history database written by 'status' when HISTORY_DB_PATH is set. " +
			"The mower argument may be a UUID or a name; it defaults to the --mower-id/--mower-name flags.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			if a.cfg.History.DBPath == "" {
				return errors.New("HISTORY_DB_PATH is not configured; nothing has been recorded")
			}

			selector := opts.mowerID
			byID := selector != ""
			if selector == "" && opts.mowerName != "" {
				selector = opts.mowerName
			}
			if len(args) == 1 {
				selector = args[0]
				byID = uuid.Validate(selector) == nil
			}
			if selector == "" {
				return errors.New("specify a mower by argument, --mower-id, or --mower-name")
			}

			store, err := sqlite.New(a.cfg.History.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			cutoff := time.Now().Add(-since)

			var snaps []telemetry.Snapshot
			if byID {
				snaps, err = store.RecentByID(ctx, selector, cutoff)
			} else {
				snaps, err = store.RecentByName(ctx, selector, cutoff)
			}
			if err != nil {
				return err
			}

			if len(snaps) == 0 {
				fmt.Printf("No samples for '%s' in the last %s.\n", selector, since)
				return nil
			}
			for _, snap := range snaps {
				fmt.Printf("%s  %s\n", snap.Time.Local().Format(time.RFC3339), snap.Summary())
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "How far back to show samples")
	return cmd
}
