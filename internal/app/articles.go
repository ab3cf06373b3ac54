package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"skylight.fyi/adwatch/internal/cli"
)

func runArticles(args []string) int {
	fs := flag.NewFlagSet("articles", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 25, "Maximum articles to list")
	status := fs.String("status", "", "Filter by status (new, parsed, failed, duplicate)")
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

	records, err := store.ListArticles(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list articles: %v\n", err)
		return 1
	}

	if trimmed := strings.TrimSpace(*status); trimmed != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Status == trimmed {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(records); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	w := newTableWriter()
	fmt.Fprintln(w, "SCORE\tSTATUS\tSOURCE\tTITLE\tURL")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatScore(r.RelevanceScore),
			r.Status,
			r.Source,
			truncate(r.Title, 60),
			truncate(r.URL, 60),
		)
	}
	_ = w.Flush()

	fmt.Printf("\n%d articles\n", len(records))
	return 0
}
