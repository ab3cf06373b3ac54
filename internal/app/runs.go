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

func runRuns(args []string) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 10, "Maximum runs to list")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *limit < 1 {
		fmt.Fprintln(os.Stderr, "--limit must be >= 1")
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
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		return 1
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list runs: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(runs); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	w := newTableWriter()
	fmt.Fprintln(w, "START\tDURATION\tTOTAL\tNEW\tDUPES\tFAILED\tERRORS\tNOTIFIED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%.1fs\t%d\t%d\t%d\t%d\t%d\t%t\n",
			r.StartTime.UTC().Format(time.RFC3339),
			r.DurationSeconds,
			r.TotalArticles,
			r.NewArticles,
			r.Duplicates,
			r.Failed,
			r.ErrorCount,
			r.NotificationSent,
		)
	}
	_ = w.Flush()

	fmt.Printf("\n%d runs\n", len(runs))
	return 0
}
