package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"skylight.fyi/adwatch/internal/cli"
)

// runHealth verifies the configured storage backend is reachable.
func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 10*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Storage backend unavailable: %v\n", err)
		return 1
	}
	defer store.Close()

	if _, err := store.ListRuns(ctx, 1); err != nil {
		fmt.Fprintf(os.Stderr, "Storage backend read failed: %v\n", err)
		return 1
	}

	fmt.Printf("ok storage=%s\n", cfg.Storage)
	return 0
}
