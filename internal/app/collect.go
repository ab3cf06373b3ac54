package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/cli"
	"skylight.fyi/adwatch/internal/collect"
	"skylight.fyi/adwatch/internal/config"
	"skylight.fyi/adwatch/internal/dedup"
	"skylight.fyi/adwatch/internal/globaltime"
	"skylight.fyi/adwatch/internal/langdetect"
	"skylight.fyi/adwatch/internal/notify"
	"skylight.fyi/adwatch/internal/reader"
	"skylight.fyi/adwatch/internal/report"
	"skylight.fyi/adwatch/internal/scoring"
	"skylight.fyi/adwatch/internal/search"
	"skylight.fyi/adwatch/internal/storage"
)

func runCollect(args []string) int {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 15*time.Minute, "Overall run timeout")
	queriesPath := fs.String("queries", "", "Path to the queries YAML file (overrides ADWATCH_QUERIES_FILE)")
	maxArticles := fs.Int("max-articles", 0, "Per-run article cap (overrides ADWATCH_MAX_ARTICLES)")
	topArticles := fs.Int("top", collect.DefaultTopArticles, "Articles to include in the notification")
	noDedup := fs.Bool("no-dedup", false, "Admit every discovered URL, including previously seen ones")
	noPersist := fs.Bool("no-persist", false, "Skip writing articles, seen URLs and the run summary")
	noNotify := fs.Bool("no-notify", false, "Skip the Slack notification")

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

	if *noDedup {
		cfg.EnableDeduplication = false
	}
	if *noPersist {
		cfg.PersistResults = false
	}
	if *maxArticles > 0 {
		cfg.MaxArticlesPerRun = *maxArticles
	}

	path := cfg.QueriesFile
	explicit := false
	if strings.TrimSpace(*queriesPath) != "" {
		path = *queriesPath
		explicit = true
	}
	qf, err := loadQueries(path, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load queries: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("storage backend unavailable")
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		return 1
	}
	defer store.Close()

	summary, err := executeRun(ctx, cfg, logger, store, qf, runOptions{
		TopArticles: *topArticles,
		Notify:      !*noNotify,
	})
	if err != nil {
		logger.Error().Err(err).Msg("collection run failed")
		fmt.Fprintf(os.Stderr, "Collection failed: %v\n", err)
		return 1
	}

	printRunSummary(summary)

	// A run where more than half the processed articles produced errors
	// is treated as a failed run.
	if float64(summary.ErrorCount) > float64(summary.TotalArticles)/2 {
		return 1
	}
	return 0
}

type runOptions struct {
	TopArticles int
	Notify      bool
}

// executeRun drives one full pipeline pass: seed, search, parse, score,
// report, persist, notify.
func executeRun(ctx context.Context, cfg *config.Config, logger zerolog.Logger, store storage.Store, qf *config.QueryFile, opts runOptions) (collect.Summary, error) {
	seen := dedup.NewStore()
	if cfg.EnableDeduplication {
		urls, err := store.LoadSeenURLs(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("could not load seen urls, starting with an empty set")
		}
		seen.Seed(urls)
		logger.Info().Int("count", len(urls)).Msg("loaded previously seen urls")
	}

	run := collect.NewRun(seen, collect.Options{
		MaxArticles: cfg.MaxArticlesPerRun,
		Dedup:       cfg.EnableDeduplication,
	})

	client := search.NewClient(logger, search.Options{
		Delay:       cfg.SearchDelay,
		Timeout:     cfg.RequestTimeout,
		TargetSites: qf.TargetSites,
	})

	for _, q := range qf.SearchQueries {
		keywords := strings.Join(q.Keywords, " ")
		logger.Info().Str("keywords", keywords).Msg("searching")

		results, err := client.Search(ctx, q)
		if err != nil {
			run.AddError(fmt.Sprintf("search failed for '%s': %v", keywords, err))
		}
		for _, result := range results {
			run.RecordSearch()
			for _, a := range result.Articles {
				run.AddArticle(a)
			}
		}
	}

	if len(qf.Feeds) > 0 {
		result, err := client.FetchFeeds(ctx, qf.Feeds)
		if err != nil {
			run.AddError(fmt.Sprintf("feed fetch failed: %v", err))
		}
		if len(result.Articles) > 0 {
			run.RecordSearch()
			for _, a := range result.Articles {
				run.AddArticle(a)
			}
		}
	}

	logger.Info().
		Int("total", len(run.Articles())).
		Int("new", len(run.NewArticles())).
		Msg("search complete")

	parser := reader.NewParser(logger, reader.Options{Timeout: cfg.RequestTimeout})
	toParse := make([]*article.Article, 0, len(run.Articles()))
	for _, a := range run.Articles() {
		if a.Status == article.StatusNew {
			toParse = append(toParse, a)
		}
	}
	logger.Info().Int("count", len(toParse)).Msg("parsing articles")

	for i, a := range toParse {
		if err := parser.Parse(ctx, a); err != nil {
			run.AddError(fmt.Sprintf("parse failed for %s: %v", a.URL, err))
		}
		if (i+1)%10 == 0 {
			logger.Info().Int("parsed", i+1).Int("total", len(toParse)).Msg("parse progress")
		}
	}

	fresh := run.NewArticles()
	if cfg.EnglishOnly {
		fresh = filterEnglish(fresh, logger)
	}

	scoring.Apply(fresh, qf.TermTable())

	reportPath := ""
	if len(fresh) > 0 {
		gen, err := report.NewGenerator(cfg.OutputDir, logger)
		if err != nil {
			run.AddError(fmt.Sprintf("report generator failed: %v", err))
		} else {
			path, err := gen.Generate(fresh, globaltime.UTC(), "")
			if err != nil {
				run.AddError(fmt.Sprintf("report generation failed: %v", err))
			} else {
				reportPath = path
			}
		}
	}

	if cfg.PersistResults {
		persistRun(ctx, run, store, fresh, logger)
	}

	if opts.Notify && len(fresh) > 0 {
		notifier := notify.NewNotifier(cfg.SlackWebhookURL, logger)
		sent, err := notifier.SendDigest(ctx, run.NotificationPayload(opts.TopArticles), reportPath)
		if err != nil {
			run.AddError(fmt.Sprintf("notification failed: %v", err))
		}
		if sent {
			run.MarkNotified()
		}
	}

	summary := run.Summary()
	if cfg.PersistResults {
		if err := store.SaveRunSummary(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("could not persist run summary")
		}
	}

	logger.Info().
		Float64("duration_seconds", summary.DurationSeconds).
		Int("total", summary.TotalArticles).
		Int("new", summary.NewArticles).
		Int("duplicates", summary.Duplicates).
		Int("failed", summary.Failed).
		Msg("collection complete")
	if summary.ErrorCount > 0 {
		logger.Warn().Int("errors", summary.ErrorCount).Msg("run finished with errors")
	}

	return summary, nil
}

// filterEnglish drops articles whose detectable language is not English.
// Articles too short to classify are kept.
func filterEnglish(articles []*article.Article, logger zerolog.Logger) []*article.Article {
	kept := make([]*article.Article, 0, len(articles))
	for _, a := range articles {
		sample := a.Title
		if a.Summary != "" {
			sample += " " + a.Summary
		}
		if langdetect.Matches(sample, "en") {
			kept = append(kept, a)
			continue
		}
		a.Tags = append(a.Tags, "non-english")
		logger.Debug().Str("url", a.URL).Msg("skipping non-english article")
	}
	return kept
}

func persistRun(ctx context.Context, run *collect.Run, store storage.Store, fresh []*article.Article, logger zerolog.Logger) {
	if len(fresh) > 0 {
		if err := store.SaveArticles(ctx, fresh); err != nil {
			logger.Error().Err(err).Msg("could not persist articles")
			run.AddError(fmt.Sprintf("persist articles failed: %v", err))
		}
		if js, ok := store.(*storage.JSONStore); ok {
			if _, err := js.ExportDaily(ctx, fresh, globaltime.UTC()); err != nil {
				logger.Error().Err(err).Msg("could not write daily export")
			}
		}
	}

	urls := make([]string, 0, len(run.Articles()))
	for _, a := range run.Articles() {
		urls = append(urls, a.URL)
	}
	if err := store.SaveSeenURLs(ctx, urls); err != nil {
		logger.Error().Err(err).Msg("could not persist seen urls")
		run.AddError(fmt.Sprintf("persist seen urls failed: %v", err))
	}
}

func printRunSummary(summary collect.Summary) {
	fmt.Printf("Total articles: %d\n", summary.TotalArticles)
	fmt.Printf("New articles: %d\n", summary.NewArticles)
	fmt.Printf("Duplicates: %d\n", summary.Duplicates)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("Errors: %d\n", summary.ErrorCount)
	fmt.Printf("Duration: %.2fs\n", summary.DurationSeconds)
}
