package main

import (
	"context"
	"fmt"
	"os"

	"kidcoins/internal/config"
	"kidcoins/internal/database"
	"kidcoins/internal/logger"
	"kidcoins/internal/security"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root has run
type app struct {
	cfg      *config.Config
	db       *database.DB
	services *service.Services
	log      *logrus.Logger
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		a          app
	)

	cmd := &cobra.Command{
		Use:           "coinsctl",
		Short:         "Operate a kidcoins deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv("KIDCOINS_CONFIG", configPath); err != nil {
					return err
				}
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(
		newMigrateCommand(&a),
		newBalanceCommand(&a),
		newAdjustCommand(&a),
		newExportCommand(&a),
		newSweepCommand(&a),
	)
	return cmd
}

// open loads configuration, connects and migrates the database and builds
// the services without any broker or mailer.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	log.SetOutput(os.Stderr)

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.cfg = cfg
	a.db = db
	a.log = log
	a.services = service.New(
		service.Options{DB: db, Logger: log},
		service.Settings{StreakLocation: cfg.StreakLocation(), InviteCodeTTL: cfg.InviteCodeTTL},
		security.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration),
		security.NewMemoryRevocationList(),
		nil,
	)
	return nil
}
