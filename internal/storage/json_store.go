package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
	"skylight.fyi/adwatch/internal/globaltime"
)

const (
	articlesFile = "articles.json"
	seenURLsFile = "seen_urls.json"
	runsFile     = "runs.json"
)

// seenURLsDocument is the on-disk envelope for the seen-URL set.
type seenURLsDocument struct {
	URLs      []string  `json:"urls"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DailyExport is the dated snapshot document written next to the rolling
// article log.
type DailyExport struct {
	Date     time.Time `json:"date"`
	Count    int       `json:"count"`
	Articles []Record  `json:"articles"`
}

// JSONStore persists collector state as JSON files in a single output
// directory.
type JSONStore struct {
	dir    string
	logger zerolog.Logger
}

func NewJSONStore(dir string, logger zerolog.Logger) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &JSONStore{dir: dir, logger: logger}, nil
}

func (s *JSONStore) LoadSeenURLs(ctx context.Context) ([]string, error) {
	var doc seenURLsDocument
	if err := s.readJSON(seenURLsFile, &doc); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load seen urls: %w", err)
	}
	return doc.URLs, nil
}

func (s *JSONStore) SaveSeenURLs(ctx context.Context, urls []string) error {
	existing, err := s.LoadSeenURLs(ctx)
	if err != nil {
		// A corrupt seen-set is replaced rather than fatal.
		s.logger.Warn().Err(err).Msg("discarding unreadable seen-url file")
	}

	merged := make(map[string]struct{}, len(existing)+len(urls))
	for _, u := range existing {
		merged[u] = struct{}{}
	}
	for _, u := range urls {
		merged[u] = struct{}{}
	}

	all := make([]string, 0, len(merged))
	for u := range merged {
		all = append(all, u)
	}
	sort.Strings(all)

	doc := seenURLsDocument{
		URLs:      all,
		Count:     len(all),
		UpdatedAt: globaltime.UTC(),
	}
	if err := s.writeJSON(seenURLsFile, doc); err != nil {
		return fmt.Errorf("save seen urls: %w", err)
	}

	s.logger.Info().Int("count", len(all)).Msg("saved seen urls")
	return nil
}

func (s *JSONStore) SaveArticles(ctx context.Context, articles []*article.Article) error {
	var existing []Record
	if err := s.readJSON(articlesFile, &existing); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Msg("discarding unreadable article log")
		existing = nil
	}

	all := append(existing, RecordsOf(articles)...)
	if err := s.writeJSON(articlesFile, all); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}

	s.logger.Info().Int("appended", len(articles)).Int("total", len(all)).Msg("saved articles")
	return nil
}

func (s *JSONStore) SaveRunSummary(ctx context.Context, summary collect.Summary) error {
	var existing []collect.Summary
	if err := s.readJSON(runsFile, &existing); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Msg("discarding unreadable run log")
		existing = nil
	}

	existing = append(existing, summary)
	if err := s.writeJSON(runsFile, existing); err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}

func (s *JSONStore) ListArticles(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	if err := s.readJSON(articlesFile, &records); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list articles: %w", err)
	}

	// Newest (most recently appended) first.
	reversed := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		reversed = append(reversed, records[i])
	}
	if limit > 0 && len(reversed) > limit {
		reversed = reversed[:limit]
	}
	return reversed, nil
}

func (s *JSONStore) ListRuns(ctx context.Context, limit int) ([]collect.Summary, error) {
	var runs []collect.Summary
	if err := s.readJSON(runsFile, &runs); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list runs: %w", err)
	}

	reversed := make([]collect.Summary, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		reversed = append(reversed, runs[i])
	}
	if limit > 0 && len(reversed) > limit {
		reversed = reversed[:limit]
	}
	return reversed, nil
}

// ExportDaily writes a dated snapshot (articles_YYYY-MM-DD.json) and
// returns its path.
func (s *JSONStore) ExportDaily(ctx context.Context, articles []*article.Article, day time.Time) (string, error) {
	doc := DailyExport{
		Date:     day,
		Count:    len(articles),
		Articles: RecordsOf(articles),
	}

	name := fmt.Sprintf("articles_%s.json", day.UTC().Format("2006-01-02"))
	if err := s.writeJSON(name, doc); err != nil {
		return "", fmt.Errorf("export daily snapshot: %w", err)
	}

	path := filepath.Join(s.dir, name)
	s.logger.Info().Str("path", path).Int("count", len(articles)).Msg("exported daily snapshot")
	return path, nil
}

// Dir returns the output directory the store writes into.
func (s *JSONStore) Dir() string {
	return s.dir
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
