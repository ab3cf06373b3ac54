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
	"skylight.fyi/adwatch/internal/config"
	"skylight.fyi/adwatch/internal/scoring"
	"skylight.fyi/adwatch/internal/search"
)

// runSearch performs a one-off search without touching storage. Useful
// for trying out keyword sets before adding them to the queries file.
func runSearch(args []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	timeout := fs.Duration("timeout", 2*time.Minute, "Command timeout")
	keywords := fs.String("keywords", "", "Comma-separated search keywords (required)")
	sources := fs.String("sources", "google,bing", "Comma-separated engines: google, bing, duckduckgo")
	maxResults := fs.Int("max", 20, "Maximum results per engine")
	score := fs.Bool("score", false, "Score titles against the relevance term table")
	format := fs.String("format", outputFormatTable, "Output format: table or json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	keywordList := splitCommaList(*keywords)
	if len(keywordList) == 0 {
		fmt.Fprintln(os.Stderr, "--keywords is required")
		return 2
	}
	sourceList := splitCommaList(*sources)
	if len(sourceList) == 0 {
		fmt.Fprintln(os.Stderr, "--sources must name at least one engine")
		return 2
	}
	if *maxResults < 1 {
		fmt.Fprintln(os.Stderr, "--max must be >= 1")
		return 2
	}
	outputFormat, err := parseOutputFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := search.NewClient(logger, search.Options{
		Delay:   cfg.SearchDelay,
		Timeout: cfg.RequestTimeout,
	})

	results, err := client.Search(ctx, config.SearchQuery{
		Keywords:   keywordList,
		Sources:    sourceList,
		MaxResults: *maxResults,
		Language:   "en",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("some engines failed")
	}

	var all []*searchHit
	for _, result := range results {
		for _, a := range result.Articles {
			hit := &searchHit{
				Engine: result.Engine,
				Title:  a.Title,
				URL:    a.URL,
			}
			if *score {
				value, matched := scoring.Score(a, scoring.DefaultTable())
				hit.Score = value
				hit.MatchedTerms = matched
			}
			all = append(all, hit)
		}
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(all); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	w := newTableWriter()
	if *score {
		fmt.Fprintln(w, "ENGINE\tSCORE\tTITLE\tURL")
		for _, hit := range all {
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", hit.Engine, hit.Score, truncate(hit.Title, 60), truncate(hit.URL, 60))
		}
	} else {
		fmt.Fprintln(w, "ENGINE\tTITLE\tURL")
		for _, hit := range all {
			fmt.Fprintf(w, "%s\t%s\t%s\n", hit.Engine, truncate(hit.Title, 60), truncate(hit.URL, 60))
		}
	}
	_ = w.Flush()

	fmt.Printf("\n%d results\n", len(all))
	return 0
}

type searchHit struct {
	Engine       string   `json:"engine"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Score        float64  `json:"score,omitempty"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
