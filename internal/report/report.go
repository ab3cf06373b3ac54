package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
)

//go:embed report.html.tmpl
var reportTemplate string

const (
	highScoreThreshold   = 0.6
	mediumScoreThreshold = 0.3

	summaryMaxChars = 200
	maxShownTerms   = 6

	defaultTitle = "Ad Threat Daily Intelligence Report"
)

// Generator renders the daily HTML digest into an output directory.
type Generator struct {
	outputDir string
	tmpl      *template.Template
	logger    zerolog.Logger
}

type pageData struct {
	Title       string
	Date        string
	Total       int
	HighCount   int
	MediumCount int
	LowCount    int
	Rows        []row
}

type row struct {
	Rank          int
	URL           string
	Title         string
	Summary       string
	Source        string
	Author        string
	PublishedDate string
	ScorePercent  int
	ScoreLabel    string
	Tier          string
	ScoreColor    template.CSS
	MatchedTerms  []string
}

func NewGenerator(outputDir string, logger zerolog.Logger) (*Generator, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}
	return &Generator{outputDir: outputDir, tmpl: tmpl, logger: logger}, nil
}

// Generate writes report_YYYY-MM-DD.html and returns its path. Articles
// are ranked by relevance score, highest first.
func (g *Generator) Generate(articles []*article.Article, day time.Time, title string) (string, error) {
	if title == "" {
		title = defaultTitle
	}

	ranked := make([]*article.Article, len(articles))
	copy(ranked, articles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score() > ranked[j].Score()
	})

	data := pageData{
		Title: title,
		Date:  day.Format("January 2, 2006"),
		Total: len(ranked),
	}
	for i, a := range ranked {
		data.Rows = append(data.Rows, rowOf(i+1, a))
		switch tierOf(a.Score()) {
		case "high":
			data.HighCount++
		case "medium":
			data.MediumCount++
		default:
			data.LowCount++
		}
	}

	name := fmt.Sprintf("report_%s.html", day.Format("2006-01-02"))
	path := filepath.Join(g.outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := g.tmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	g.logger.Info().Str("path", path).Int("articles", len(ranked)).Msg("generated html report")
	return path, nil
}

func rowOf(rank int, a *article.Article) row {
	score := a.Score()
	tier := tierOf(score)

	summary := a.Summary
	if summary == "" {
		summary = a.Content
	}
	if summary == "" {
		summary = "No summary available"
	}
	if len(summary) > summaryMaxChars {
		summary = summary[:summaryMaxChars] + "..."
	}

	source := a.Source
	if source == "" {
		source = "Unknown"
	}

	terms := a.MatchedTerms
	if len(terms) > maxShownTerms {
		terms = terms[:maxShownTerms]
	}

	r := row{
		Rank:         rank,
		URL:          a.URL,
		Title:        a.Title,
		Summary:      summary,
		Source:       source,
		Author:       a.Author,
		ScorePercent: int(score * 100),
		ScoreLabel:   fmt.Sprintf("%d%%", int(score*100)),
		Tier:         tier,
		ScoreColor:   tierColor(tier),
		MatchedTerms: terms,
	}
	if a.PublishedDate != nil {
		r.PublishedDate = a.PublishedDate.Format("Jan 2, 2006")
	}
	return r
}

func tierOf(score float64) string {
	switch {
	case score >= highScoreThreshold:
		return "high"
	case score >= mediumScoreThreshold:
		return "medium"
	default:
		return "low"
	}
}

func tierColor(tier string) template.CSS {
	switch tier {
	case "high":
		return "#22c55e"
	case "medium":
		return "#f59e0b"
	default:
		return "#94a3b8"
	}
}
