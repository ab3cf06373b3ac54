package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/cli"
	"skylight.fyi/adwatch/internal/config"
	"skylight.fyi/adwatch/internal/db"
	"skylight.fyi/adwatch/internal/logging"
	"skylight.fyi/adwatch/internal/storage"
)

// bootstrap loads the .env file, the environment config and the logger.
// Every command starts here.
func bootstrap(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// openStore builds the configured persistence backend. The caller owns
// the returned store and must Close it.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.Store, error) {
	switch strings.TrimSpace(strings.ToLower(cfg.Storage)) {
	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		return db.NewStore(pool, logger), nil
	default:
		return storage.NewJSONStore(cfg.OutputDir, logger)
	}
}

// loadQueries reads the YAML query file, falling back to the built-in
// defaults when the file does not exist and no explicit path was given.
func loadQueries(path string, explicit bool) (*config.QueryFile, error) {
	qf, err := config.LoadQueryFile(path)
	if err == nil {
		return qf, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.DefaultQueryFile(nil), nil
	}
	return nil, err
}
