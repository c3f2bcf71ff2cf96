package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Juhni/RoopeRobotti/internal/amc"
)

func pauseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause mowing now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}
			if err := a.client.SendAction(ctx, mower.ID, amc.Pause()); err != nil {
				return err
			}
			fmt.Println("OK: mower paused")
			return nil
		},
	}
}

func resumeCmd(opts *rootOptions) *cobra.Command {
	var fallbackStart bool

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume schedule (optionally falling back to Start)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}
			if err := a.client.Resume(ctx, mower.ID, fallbackStart); err != nil {
				return err
			}
			fmt.Println("OK: mower resumed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&fallbackStart, "fallback-start", false, "If ResumeSchedule fails, try Start")
	return cmd
}

func startCmd(opts *rootOptions) *cobra.Command {
	var (
		workArea string
		duration int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start mowing (optionally in a specific work area)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}

			var startOpts amc.StartOptions
			if workArea != "" {
				area, err := amc.FindWorkArea(mower, workArea)
				if err != nil {
					return err
				}
				startOpts.WorkAreaID = &area.ID
			}
			if cmd.Flags().Changed("duration") {
				startOpts.Duration = &duration
			}

			if err := a.client.SendAction(ctx, mower.ID, amc.Start(startOpts)); err != nil {
				return err
			}

			msg := "OK: mower started"
			if startOpts.WorkAreaID != nil {
				msg += fmt.Sprintf(" in work area %d", *startOpts.WorkAreaID)
			}
			if startOpts.Duration != nil {
				msg += fmt.Sprintf(" for %d min", *startOpts.Duration)
			}
			fmt.Println(msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&workArea, "work-area", "", "Work area NAME or ID to start in")
	cmd.Flags().IntVar(&duration, "duration", 0, "Minutes to mow (often required with --work-area)")
	return cmd
}

func parkCmd(opts *rootOptions) *cobra.Command {
	var (
		duration  int
		untilNext bool
	)

	cmd := &cobra.Command{
		Use:   "park",
		Short: "Park the mower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}

			var durationPtr *int
			if cmd.Flags().Changed("duration") {
				durationPtr = &duration
			}

			if err := a.client.SendAction(ctx, mower.ID, amc.ParkRequest(durationPtr, untilNext)); err != nil {
				return err
			}

			switch {
			case untilNext:
				fmt.Println("OK: mower parked until next schedule")
			case durationPtr == nil:
				fmt.Println("OK: mower parked (until further notice)")
			default:
				fmt.Printf("OK: mower parked for %d minutes\n", duration)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 0, "Minutes to park; omit for until-further-notice")
	cmd.Flags().BoolVar(&untilNext, "until-next", false, "Park until the next schedule window")
	return cmd
}

func confirmErrorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-error",
		Short: "Confirm/clear an error if confirmable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}
			if err := a.client.SendAction(ctx, mower.ID, amc.ConfirmError()); err != nil {
				return err
			}
			fmt.Println("OK: error confirmed (if any)")
			return nil
		},
	}
}

func setHeightCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-height <value>",
		Short: "Set cutting height (model-specific scale)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid cutting height %q: %w", args[0], err)
			}

			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}
			if err := a.client.SendAction(ctx, mower.ID, amc.SetCuttingHeight(height)); err != nil {
				return err
			}
			fmt.Printf("OK: cutting height set to %d\n", height)
			return nil
		},
	}
}

func setHeadlightCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-headlight <mode>",
		Short: "Set headlight mode: " + strings.Join(amc.HeadlightModes, "|"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := args[0]
			if !slices.Contains(amc.HeadlightModes, mode) {
				return fmt.Errorf("invalid headlight mode %q; valid modes: %s", mode, strings.Join(amc.HeadlightModes, ", "))
			}

			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			mower, err := opts.selectMower(ctx, a)
			if err != nil {
				return err
			}

			sent, err := a.client.SetHeadlightMode(ctx, mower, mode)
			if err != nil {
				return err
			}
			if !sent {
				fmt.Fprintf(os.Stderr, "Model has no headlights capability for '%s'; nothing to do.\n", mower.DisplayName())
				return nil
			}
			fmt.Printf("OK: headlight mode set to %s\n", mode)
			return nil
		},
	}
}

func listActionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-actions",
		Short: "Print supported actions for the selected mower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newAPIApp()
			if err != nil {
				return err
			}
			mower, err := opts.selectMower(cmd.Context(), a)
			if err != nil {
				return err
			}
			printListActions(mower)
			return nil
		},
	}
}

func printListActions(mower *amc.Mower) {
	attrs := &mower.Attributes
	model := attrs.System.Model
	if model == "" {
		model = "(unknown)"
	}

	fmt.Printf("Supported actions for %s (%s):\n", mower.DisplayName(), model)
	fmt.Println("- Pause")
	fmt.Println("- ResumeSchedule")
	fmt.Println("- Start [--duration N] [--work-area NAME|ID]")
	fmt.Println("- Park [--duration N]")
	fmt.Println("- ParkUntilNextSchedule")
	fmt.Println("- ParkUntilFurtherNotice")
	if attrs.Capabilities.CanConfirmError {
		fmt.Println("- ConfirmError")
	} else {
		fmt.Println("- ConfirmError (not supported by this model)")
	}

	if attrs.Capabilities.WorkAreas {
		fmt.Println("\nWork areas on this mower:")
		for _, area := range attrs.WorkAreas {
			fmt.Printf("  - %s (id=%d)\n", area.Name, area.ID)
		}
		fmt.Println("Note: many backends require --duration when you pass --work-area.")
	}

	if attrs.Capabilities.Headlights {
		fmt.Println("\nSettings (headlights supported):")
		fmt.Println("- set-headlight " + strings.Join(amc.HeadlightModes, "|"))
	} else {
		fmt.Println("\nSettings:")
		fmt.Println("- set-headlight (not supported on this model)")
	}
	fmt.Println("- set-height <value>  (model-specific scale)")

	fmt.Printf("\nCurrent state: state=%s, activity=%s\n", attrs.Mower.State, attrs.Mower.Activity)
}
