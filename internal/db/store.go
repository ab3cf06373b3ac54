package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm/clause"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
	"skylight.fyi/adwatch/internal/globaltime"
	"skylight.fyi/adwatch/internal/storage"
)

// Store implements storage.Store on top of Postgres.
type Store struct {
	pool   *Pool
	logger zerolog.Logger
}

func NewStore(pool *Pool, logger zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

func (s *Store) LoadSeenURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := s.pool.GORM().WithContext(ctx).
		Model(&SeenURL{}).
		Order("url").
		Pluck("url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("load seen urls: %w", err)
	}
	return urls, nil
}

func (s *Store) SaveSeenURLs(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	now := globaltime.UTC()
	rows := make([]SeenURL, 0, len(urls))
	for _, u := range urls {
		rows = append(rows, SeenURL{URL: u, FirstSeen: now})
	}

	err := s.pool.GORM().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save seen urls: %w", err)
	}
	return nil
}

func (s *Store) SaveArticles(ctx context.Context, articles []*article.Article) error {
	if len(articles) == 0 {
		return nil
	}

	rows := make([]ArticleRow, 0, len(articles))
	for _, a := range articles {
		row, err := rowOf(a)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if err := s.pool.GORM().WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("save articles: %w", err)
	}

	s.logger.Info().Int("count", len(rows)).Msg("saved articles to postgres")
	return nil
}

func (s *Store) SaveRunSummary(ctx context.Context, summary collect.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}

	row := RunRow{
		StartedAt: summary.StartTime,
		Summary:   payload,
	}
	if err := s.pool.GORM().WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	return nil
}

func (s *Store) ListArticles(ctx context.Context, limit int) ([]storage.Record, error) {
	q := s.pool.GORM().WithContext(ctx).
		Model(&ArticleRow{}).
		Order("article_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []ArticleRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	records := make([]storage.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordOf(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]collect.Summary, error) {
	q := s.pool.GORM().WithContext(ctx).
		Model(&RunRow{}).
		Order("run_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []RunRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]collect.Summary, 0, len(rows))
	for _, row := range rows {
		var summary collect.Summary
		if err := json.Unmarshal(row.Summary, &summary); err != nil {
			return nil, fmt.Errorf("decode run %d summary: %w", row.RunID, err)
		}
		runs = append(runs, summary)
	}
	return runs, nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func rowOf(a *article.Article) (ArticleRow, error) {
	row := ArticleRow{
		URL:            a.URL,
		Title:          a.Title,
		Source:         a.Source,
		DiscoveredAt:   a.DiscoveredAt,
		PublishedDate:  a.PublishedDate,
		RelevanceScore: a.RelevanceScore,
		Status:         string(a.Status),
	}
	row.Summary = optionalText(a.Summary)
	row.Content = optionalText(a.Content)
	row.Author = optionalText(a.Author)
	row.ErrorMessage = optionalText(a.ErrorMessage)

	if len(a.Tags) > 0 {
		data, err := json.Marshal(a.Tags)
		if err != nil {
			return ArticleRow{}, fmt.Errorf("encode tags for %s: %w", a.URL, err)
		}
		row.Tags = data
	}
	if len(a.MatchedTerms) > 0 {
		data, err := json.Marshal(a.MatchedTerms)
		if err != nil {
			return ArticleRow{}, fmt.Errorf("encode matched terms for %s: %w", a.URL, err)
		}
		row.MatchedTerms = data
	}
	return row, nil
}

func recordOf(row ArticleRow) (storage.Record, error) {
	rec := storage.Record{
		URL:            row.URL,
		Title:          row.Title,
		Source:         row.Source,
		DiscoveredAt:   row.DiscoveredAt,
		PublishedDate:  row.PublishedDate,
		RelevanceScore: row.RelevanceScore,
		Status:         row.Status,
	}
	rec.Summary = textOf(row.Summary)
	rec.Content = textOf(row.Content)
	rec.Author = textOf(row.Author)
	rec.ErrorMessage = textOf(row.ErrorMessage)

	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &rec.Tags); err != nil {
			return storage.Record{}, fmt.Errorf("decode tags for %s: %w", row.URL, err)
		}
	}
	if len(row.MatchedTerms) > 0 {
		if err := json.Unmarshal(row.MatchedTerms, &rec.MatchedTerms); err != nil {
			return storage.Record{}, fmt.Errorf("decode matched terms for %s: %w", row.URL, err)
		}
	}
	return rec, nil
}

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func textOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
