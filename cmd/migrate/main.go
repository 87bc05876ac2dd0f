// Command migrate applies the embedded database schema.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"clockwise.service/internal/config"
	"clockwise.service/migrations"
	"clockwise.service/pkg/database"
	"clockwise.service/pkg/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the clockwise database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			log.Info().Msg("Migrations applied")
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid steps %q: %w", args[0], err)
			}
			steps = n
		}
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			if err := m.Down(steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("Migrations rolled back")
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(m *database.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info().Msg("No migration applied")
				return nil
			}
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Schema version")
			return nil
		})
	},
}

func withMigrator(ctx context.Context, fn func(*database.Migrator) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	logger.Setup(cfg.IsLocalDev)

	db, err := database.NewInstrumentedConnection(ctx, cfg)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	m, err := database.NewMigrator(db, migrations.FS)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close migrator")
		}
	}()

	return fn(m)
}

func main() {
	rootCmd.AddCommand(upCmd, downCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("Migration failed")
		os.Exit(1)
	}
}
