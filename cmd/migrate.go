package cmd

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-letters/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the MySQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Run: func(_ *cobra.Command, _ []string) {
		runMigration("up", migrations.Up)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the migration status",
	Run: func(_ *cobra.Command, _ []string) {
		runMigration("status", migrations.Status)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigration(name string, fn func(ctx context.Context, db *sql.DB) error) {
	cfg := mustLoadConfig()
	db := mustOpenDB(cfg)
	defer db.Close()

	if err := fn(context.Background(), db); err != nil {
		logrus.WithError(err).WithField("migration", name).Fatal("Migration failed")
	}
	logrus.WithField("migration", name).Info("Migration finished")
}
