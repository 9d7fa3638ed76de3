// Package backend opens the persistence layer selected by configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendwise/internal/config"
	"spendwise/internal/ports"
	"spendwise/internal/ports/memory"
	"spendwise/internal/storage"
)

// BackendType names a persistence implementation.
type BackendType string

const (
	SQLiteBackend BackendType = config.BackendSQLite
	MemoryBackend BackendType = config.BackendMemory
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is an opened store plus its cleanup, which is never nil.
type Result struct {
	Store   ports.Store
	Cleanup CleanupFunc
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// memory backend: seed file directory and the user who owns the seeds
	DataDirectory string
	SeedUser      string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:          BackendType(appConfig.DataBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDir,
		SeedUser:      appConfig.DemoUser,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		store := memory.NewFromFiles(dir, cfg.SeedUser)
		logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dir, "seed_user", cfg.SeedUser)
		return &Result{Store: store, Cleanup: func() error { return nil }}, nil
	}
}
