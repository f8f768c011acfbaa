// Command campusctl is the operator and terminal client for the campus alert service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/go-campus-alerts/internal/auth"
	"github.com/mr1hm/go-campus-alerts/internal/config"
	"github.com/mr1hm/go-campus-alerts/internal/logging"
	"github.com/mr1hm/go-campus-alerts/internal/repository"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "campusctl",
		Short:        "Manage and watch campus disaster alerts",
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newPromoteCmd(),
		newSeedCmd(),
		newCreateUserCmd(),
		newTokenCmd(),
		newAlertsCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openAuth opens the database directly, for commands that run next to the server.
func openAuth(cfg *config.Config) (*auth.Service, func(), error) {
	logging.Setup(cfg.Logging.Level, "text")

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return nil, nil, err
	}

	svc := auth.NewService(db, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	return svc, func() { db.Close() }, nil
}
