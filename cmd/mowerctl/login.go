package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Juhni/RoopeRobotti/internal/auth"
	"github.com/Juhni/RoopeRobotti/internal/authflow"
)

func loginCmd(opts *rootOptions) *cobra.Command {
	var (
		manualCode string
		noBrowser  bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a refresh token via the OAuth authorization-code flow",
		Long: "Starts a local callback server on the HUSQ_REDIRECT_URI port, opens the authorization " +
			"page in a browser, exchanges the returned code, and saves the refresh token to the env file. " +
			"Use --code to paste a code obtained elsewhere instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			if err := a.cfg.ValidateLogin(); err != nil {
				return err
			}

			ctx := cmd.Context()
			creds := a.cfg.Credentials

			code := manualCode
			if code == "" {
				server, err := authflow.New(creds.RedirectURI, a.logger)
				if err != nil {
					return err
				}

				authorizeURL := server.AuthorizeURL(a.cfg.API.AuthorizeURL, creds.ClientID, creds.Scope)
				fmt.Println("Open this URL if it doesn't open automatically:")
				fmt.Println("  " + authorizeURL)
				if !noBrowser {
					if err := openBrowser(authorizeURL); err != nil {
						a.logger.Debug("could not open browser", "error", err)
					}
				}

				code, err = server.Wait(ctx)
				if err != nil {
					return err
				}
			}

			grant, err := auth.ExchangeCode(ctx, a.cfg.API.TokenURL,
				creds.ClientID, creds.ClientSecret, code, creds.RedirectURI)
			if err != nil {
				return err
			}
			if grant.RefreshToken == "" {
				return fmt.Errorf("token endpoint returned no refresh token")
			}

			if err := a.store.Set(auth.RefreshTokenKey, grant.RefreshToken); err != nil {
				return fmt.Errorf("obtained a refresh token but could not save it to %s: %w", a.store.Path(), err)
			}

			fmt.Println("Login successful.")
			fmt.Printf("Saved %s to %s.\n", auth.RefreshTokenKey, a.store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&manualCode, "code", "", "Authorization code obtained manually, skipping the browser flow")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the authorization URL instead of opening a browser")
	return cmd
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
