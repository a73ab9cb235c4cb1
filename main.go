package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clipvault/internal/blob"
	"clipvault/internal/capture"
	"clipvault/internal/clipboard"
	"clipvault/internal/config"
	"clipvault/internal/database"
	"clipvault/internal/enrich"
	"clipvault/internal/input"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	configDir, err := configDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("using default configuration", "error", err)
		cfg = config.Default()
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.Save(configPath); err != nil {
			logger.Warn("failed to save default config", "error", err)
		}
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(configDir, "clipvault.db")
	}
	if cfg.BlobDir == "" {
		cfg.BlobDir = filepath.Join(configDir, "blobs")
	}

	store, err := database.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		return fmt.Errorf("failed to initialize blob store: %w", err)
	}

	provider, err := clipboard.NewSystemProvider(input.ActiveAppName)
	if err != nil {
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}

	enricher := enrich.NewCoordinator(
		store,
		blobs,
		&enrich.TesseractRecognizer{},
		enrich.NewHTTPFetcher(time.Duration(cfg.EnrichmentTimeout)*time.Millisecond),
		time.Duration(cfg.EnrichmentTimeout)*time.Millisecond,
		logger.With("component", "enrich"),
	)

	engine := capture.NewEngine(
		provider,
		store,
		blobs,
		enricher,
		&input.XdotoolSimulator{},
		cfg,
		logger.With("component", "capture"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capture engine: %w", err)
	}
	defer engine.Stop()

	// Drain events so capture history stays observable even without a UI
	// attached.
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-engine.Events():
			if ev.Kind == capture.EventStorageDegraded {
				logger.Error("history capture degraded", "error", ev.Err)
				continue
			}
			logger.Info("history changed", "event", ev.Kind, "id", ev.Entry.ID, "type", ev.Entry.Type)
		}
	}
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	dir := filepath.Join(base, "clipvault")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
