package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/sku-resolver/internal/cli"
	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the catalog schema to the latest version.

Every other command migrates on startup; use --status to inspect the
schema without changing it.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()

	dbPath := config.DatabasePath(viper.GetString("database.path"))
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		state := cli.SuccessStyle.Render("up to date")
		if current < storage.ExpectedSchemaVersion {
			state = cli.WarningStyle.Render(fmt.Sprintf("%d pending", storage.ExpectedSchemaVersion-current))
		}
		summary := fmt.Sprintf("  • Database: %s\n", dbPath) +
			fmt.Sprintf("  • Current version: %d\n", current) +
			fmt.Sprintf("  • Latest version: %d\n", storage.ExpectedSchemaVersion) +
			fmt.Sprintf("  • Migrations: %s", state)
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Migration Status", summary))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Database at schema version %d (was %d)", storage.ExpectedSchemaVersion, current)))
	return nil
}
