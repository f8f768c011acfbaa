package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-campus-alerts/internal/client"
	"github.com/mr1hm/go-campus-alerts/internal/logging"
	"github.com/mr1hm/go-campus-alerts/internal/tui"
)

func newWatchCmd() *cobra.Command {
	var (
		baseURL  string
		email    string
		password string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sign in and show the alert banner in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Client.BaseURL
			}
			if email == "" {
				email = os.Getenv("CAMPUS_ALERTS_EMAIL")
			}
			if password == "" {
				password = os.Getenv("CAMPUS_ALERTS_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or CAMPUS_ALERTS_EMAIL and CAMPUS_ALERTS_PASSWORD) are required")
			}

			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			logging.SetupWriter(f, cfg.Logging.Level, cfg.Logging.Format)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			fetcher := client.NewHTTPFetcher(baseURL, nil)
			token, user, err := fetcher.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("signing in: %w", err)
			}

			// bell on stderr, UI on stdout
			ctrl := client.NewController(client.NewBellAlarm(os.Stderr, cfg.Client.Autoplay))
			poller := client.NewPoller(fetcher, ctrl, cfg.Client.PollInterval, nil)

			if !user.Role.IsAdmin() {
				poller.Start(ctx)
				poller.Login(token)
			}
			defer func() {
				poller.Logout()
				poller.Stop()
			}()

			_, err = tea.NewProgram(tui.NewModel(ctrl, poller, *user), tea.WithContext(ctx)).Run()
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "url", "", "alert service base URL (default ALERTS_URL)")
	f.StringVar(&email, "email", "", "login email")
	f.StringVar(&password, "password", "", "login password")
	f.StringVar(&logFile, "log-file", "campusctl.log", "where to write logs while the UI is running")
	return cmd
}
