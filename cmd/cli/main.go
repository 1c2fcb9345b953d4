package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/cmd/cli/commands"
	"github.com/hodaifayahia/clinic-scheduling/internal/config"
	"github.com/hodaifayahia/clinic-scheduling/pkg/cache"
	"github.com/hodaifayahia/clinic-scheduling/pkg/postgres"
	"github.com/hodaifayahia/clinic-scheduling/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Clinic scheduling CLI - Availability, rebalancing and duty rosters",
		Long:  `A CLI tool for the clinic scheduling engine: slot availability searches, appointment rebalancing after shift-rule changes, and emergency-duty roster management.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Logger != nil {
					app.Logger.Sync()
				}
				if app.DB != nil {
					app.DB.Close()
				}
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	app = &commands.AppContext{}

	// Add all commands
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.FindAvailabilityCmd(app))
	rootCmd.AddCommand(commands.RebalanceCmd(app))
	rootCmd.AddCommand(commands.CheckConflictsCmd(app))
	rootCmd.AddCommand(commands.SuggestShiftCmd(app))
	rootCmd.AddCommand(commands.AddShiftCmd(app))
	rootCmd.AddCommand(commands.PublishScheduleCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, and cache
func initApp() error {
	var err error
	app.Ctx = context.Background()

	// Initialize logger
	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	// Load OAuth client configuration if present; only the schedule
	// publisher needs it.
	app.OAuthCfg, err = config.LoadOAuthClientWithEnv(env)
	if err != nil {
		app.Logger.Debug("No OAuth client configuration", zap.Error(err))
		app.OAuthCfg = nil
	}

	// Connect to database
	app.Logger.Info("Connecting to database")
	app.DB, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.Store = app.DB
	app.Logger.Info("Database connected successfully")

	// Initialize availability cache
	app.Cache = cache.New(time.Duration(app.Cfg.CacheTTLMinutes) * time.Minute)

	return nil
}
