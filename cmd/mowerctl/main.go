package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Juhni/RoopeRobotti/config"
	"github.com/Juhni/RoopeRobotti/internal/amc"
	"github.com/Juhni/RoopeRobotti/internal/auth"
	"github.com/Juhni/RoopeRobotti/internal/envfile"
	"github.com/Juhni/RoopeRobotti/internal/logging"
)

var version = "dev"

// Exit codes. Scripts rely on 2 meaning "ambiguous mower selection,
// pass --mower-id or --mower-name".
const (
	exitError     = 1
	exitAmbiguous = 2
	exitInterrupt = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err to stderr and picks the exit code.
func reportError(err error) int {
	var amb *amc.AmbiguousError
	if errors.As(err, &amb) {
		fmt.Fprintln(os.Stderr, amb.Error()+":")
		for _, m := range amb.Candidates {
			fmt.Fprintf(os.Stderr, "- %s  (%s)\n", m.DisplayName(), m.ID)
		}
		return exitAmbiguous
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Interrupted.")
		return exitInterrupt
	}

	var silent *exitCodeError
	if errors.As(err, &silent) {
		if silent.err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", silent.err)
		}
		return silent.code
	}

	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	return exitError
}

// exitCodeError carries an explicit exit code out of a RunE. err may be
// nil when the condition was already logged.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

type rootOptions struct {
	mowerID   string
	mowerName string
	envFile   string
	logFormat string
	debug     bool
	trace     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "mowerctl",
		Short:         "Husqvarna Automower CLI",
		Long:          "Controls and monitors Husqvarna Automower robotic mowers through the Automower Connect REST API.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.mowerID, "mower-id", "", "Mower UUID")
	pf.StringVar(&opts.mowerName, "mower-name", "", "Mower name as shown in the app")
	pf.StringVar(&opts.envFile, "env-file", ".env", "Path to the dotenv file holding credentials")
	pf.StringVar(&opts.logFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&opts.trace, "trace", false, "Enable ultra-verbose trace logging (raw API payloads)")

	root.AddCommand(
		pauseCmd(opts),
		resumeCmd(opts),
		startCmd(opts),
		parkCmd(opts),
		confirmErrorCmd(opts),
		setHeightCmd(opts),
		setHeadlightCmd(opts),
		listActionsCmd(opts),
		statusCmd(opts),
		historyCmd(opts),
		loginCmd(opts),
	)

	return root
}

// app bundles the pieces every networked command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *envfile.Store
	tokens *auth.TokenSource
	client *amc.Client
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	if o.trace {
		level = logging.LevelTrace
	}
	return logging.New(logging.Config{Format: o.logFormat, Level: level})
}

// newApp loads configuration without requiring the API credentials to
// be complete. Commands that talk to the API use newAPIApp instead.
func (o *rootOptions) newApp() (*app, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: o.logger(),
		store:  envfile.New(cfg.EnvFile),
	}, nil
}

// newAPIApp builds the full client stack, failing before any network
// call when a required secret is missing.
func (o *rootOptions) newAPIApp() (*app, error) {
	a, err := o.newApp()
	if err != nil {
		return nil, err
	}
	if err := a.cfg.ValidateCredentials(); err != nil {
		return nil, err
	}

	a.tokens = auth.NewTokenSource(auth.Config{
		TokenURL:     a.cfg.API.TokenURL,
		ClientID:     a.cfg.Credentials.ClientID,
		ClientSecret: a.cfg.Credentials.ClientSecret,
		RefreshToken: a.cfg.Credentials.RefreshToken,
	}, a.store, a.logger)

	a.client = amc.NewClient(amc.Config{
		BaseURL: a.cfg.API.BaseURL,
		AppKey:  a.cfg.Credentials.AppKey,
	}, a.tokens, a.logger)

	return a, nil
}

// selectMower fetches the mower list and resolves the selector flags.
func (o *rootOptions) selectMower(ctx context.Context, a *app) (*amc.Mower, error) {
	mowers, err := a.client.ListMowers(ctx)
	if err != nil {
		return nil, err
	}
	return amc.Select(mowers, o.mowerID, o.mowerName)
}
