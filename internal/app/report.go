package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/cli"
	"skylight.fyi/adwatch/internal/report"
)

// runReport rebuilds the HTML report for a day from persisted articles.
func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")
	date := fs.String("date", "", "Report day as YYYY-MM-DD (default: today)")
	limit := fs.Int("limit", 200, "Maximum articles to include")
	title := fs.String("title", "", "Report title override")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	day, err := parseUTCDate(*date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --date: %v\n", err)
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

	dayEnd := day.Add(24 * time.Hour)
	articles := make([]*article.Article, 0, len(records))
	for _, r := range records {
		if r.DiscoveredAt.Before(day) || !r.DiscoveredAt.Before(dayEnd) {
			continue
		}
		a := article.New(r.URL, r.Title, r.Source, r.DiscoveredAt)
		a.Summary = r.Summary
		a.Content = r.Content
		a.Author = r.Author
		a.PublishedDate = r.PublishedDate
		a.Tags = r.Tags
		a.RelevanceScore = r.RelevanceScore
		a.MatchedTerms = r.MatchedTerms
		a.Status = article.Status(r.Status)
		articles = append(articles, a)
	}

	gen, err := report.NewGenerator(cfg.OutputDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build report generator: %v\n", err)
		return 1
	}

	path, err := gen.Generate(articles, day, *title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate report: %v\n", err)
		return 1
	}

	fmt.Printf("report=%s articles=%d\n", path, len(articles))
	return 0
}
