package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/sku-resolver/internal/catalog"
	"github.com/Veraticus/sku-resolver/internal/config"
	"github.com/Veraticus/sku-resolver/internal/matcher"
	"github.com/Veraticus/sku-resolver/internal/normalize"
	"github.com/Veraticus/sku-resolver/internal/query"
	"github.com/Veraticus/sku-resolver/internal/resolver"
	"github.com/Veraticus/sku-resolver/internal/storage"
	"github.com/spf13/viper"
)

// initStorage opens the configured catalog and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath(viper.GetString("database.path"))

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// engine bundles the configured resolution components.
type engine struct {
	cfg       config.Engine
	parser    *query.Parser
	matcher   *matcher.Matcher
	projector *catalog.Projector
}

func newEngine(store *storage.SQLiteStorage) (*engine, error) {
	cfg, err := config.LoadEngine(viper.GetViper())
	if err != nil {
		return nil, err
	}

	vocab := normalize.DefaultVocabulary().Extend(cfg.Vocabulary.TypeAliases, cfg.Vocabulary.MaterialAliases)

	return &engine{
		cfg:       cfg,
		parser:    query.NewParser(vocab, cfg.Matching),
		matcher:   matcher.New(store, cfg.Matching),
		projector: catalog.NewProjector(vocab),
	}, nil
}

func (e *engine) controller(store *storage.SQLiteStorage) *resolver.Controller {
	return resolver.NewController(store, e.parser, e.matcher, e.cfg.Resolution,
		resolver.WithProjector(e.projector))
}

// autoCheckpoint snapshots the catalog before a destructive command.
func autoCheckpoint(ctx context.Context, store *storage.SQLiteStorage, reason string) error {
	manager, err := store.NewCheckpointManager()
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}
	info, err := manager.AutoCheckpoint(ctx, reason)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	slog.Info("Created checkpoint", "id", info.ID, "reason", reason)
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
