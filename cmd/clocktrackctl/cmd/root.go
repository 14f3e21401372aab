// Package cmd contains the clocktrackctl commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/clocktrack/internal/config"
	"github.com/geocoder89/clocktrack/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var dbURL string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clocktrackctl",
	Short: "ClockTrack administration",
	Long: `clocktrackctl runs operator tasks against a ClockTrack database.

Configuration is read the same way the API reads it (.env, CONFIG_FILE,
environment). --db-url overrides the database location.

Examples:
  # Apply pending migrations
  clocktrackctl migrate up

  # Create a user and issue an access token for it
  clocktrackctl user create --email alice@example.com --name Alice
  clocktrackctl token issue --email alice@example.com`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "postgres connection string (defaults to the configured one)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}
	return cfg, nil
}

func openPool(cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(cfg.DBURL, 2)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}
