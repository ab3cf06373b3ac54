package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/cli"
	"skylight.fyi/adwatch/internal/globaltime"
	"skylight.fyi/adwatch/internal/scoring"
)

// runScore evaluates a single title and body against the term table and
// prints the score with the matched terms. Body text can come from a
// flag, a file, or stdin.
func runScore(args []string) int {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	title := fs.String("title", "", "Article title (required)")
	text := fs.String("text", "", "Article body text")
	textFile := fs.String("text-file", "", "Path to a body text file, or - for stdin (overrides --text)")
	queriesPath := fs.String("queries", "", "Queries YAML file supplying a term-table override")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if strings.TrimSpace(*title) == "" {
		fmt.Fprintln(os.Stderr, "--title is required")
		return 2
	}

	cfg, _, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to %v\n", err)
		return 1
	}

	body := *text
	if strings.TrimSpace(*textFile) != "" {
		data, err := readTextInput(*textFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read text: %v\n", err)
			return 2
		}
		body = data
	}

	table := scoring.DefaultTable()
	path := cfg.QueriesFile
	explicit := false
	if strings.TrimSpace(*queriesPath) != "" {
		path = *queriesPath
		explicit = true
	}
	if qf, err := loadQueries(path, explicit); err == nil {
		table = qf.TermTable()
	} else if explicit {
		fmt.Fprintf(os.Stderr, "Failed to load queries: %v\n", err)
		return 1
	}

	a := article.New("https://localhost/score-preview", *title, "manual", globaltime.UTC())
	a.Content = body

	score, matched := scoring.Score(a, table)

	fmt.Printf("score=%.2f\n", score)
	if len(matched) > 0 {
		fmt.Printf("matched_terms=%s\n", strings.Join(matched, ", "))
	} else {
		fmt.Println("matched_terms=<none>")
	}
	return 0
}

func readTextInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
