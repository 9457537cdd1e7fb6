package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/fieldkeeper/internal/core/db"
	"github.com/solatis/fieldkeeper/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:     "fieldkeeper",
	Short:   "FieldKeeper conditional field visibility engine",
	Long:    `FieldKeeper decides which custom fields are visible for a record and which submitted values are persisted.`,
	Version: Version,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...), defaults to FK_DB_URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from the persistent flags. Logs go
// to stderr so command output on stdout stays machine readable.
func newLogger() (*slog.Logger, error) {
	return logging.New(os.Stderr, logLevel, logFormat)
}

// openDatabase opens --db-url (or FK_DB_URL) and loads the named queries.
func openDatabase() (*sqlx.DB, *db.Queries, error) {
	url := dbURL
	if url == "" {
		url = os.Getenv("FK_DB_URL")
	}
	if url == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

// requireMigrated fails when any embedded migration is not applied.
func requireMigrated(ctx context.Context, database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'fieldkeeper migrate' first", s.ID)
		}
	}
	return nil
}
