package storage

import (
	"context"
	"time"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
)

// Record is the persisted shape of an article: the field set plus ISO-8601
// timestamps and the status as a lowercase token.
type Record struct {
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Source         string     `json:"source"`
	DiscoveredAt   time.Time  `json:"discovered_at"`
	Summary        string     `json:"summary,omitempty"`
	Content        string     `json:"content,omitempty"`
	Author         string     `json:"author,omitempty"`
	PublishedDate  *time.Time `json:"published_date,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	RelevanceScore *float64   `json:"relevance_score,omitempty"`
	MatchedTerms   []string   `json:"matched_terms,omitempty"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// RecordOf converts an article to its persisted form.
func RecordOf(a *article.Article) Record {
	if a == nil {
		return Record{}
	}
	return Record{
		URL:            a.URL,
		Title:          a.Title,
		Source:         a.Source,
		DiscoveredAt:   a.DiscoveredAt,
		Summary:        a.Summary,
		Content:        a.Content,
		Author:         a.Author,
		PublishedDate:  a.PublishedDate,
		Tags:           a.Tags,
		RelevanceScore: a.RelevanceScore,
		MatchedTerms:   a.MatchedTerms,
		Status:         string(a.Status),
		ErrorMessage:   a.ErrorMessage,
	}
}

// RecordsOf converts a batch of articles.
func RecordsOf(articles []*article.Article) []Record {
	records := make([]Record, 0, len(articles))
	for _, a := range articles {
		records = append(records, RecordOf(a))
	}
	return records
}

// Store is the persistence collaborator the pipeline relies on. Seed-load
// failures must degrade to an empty result instead of aborting a run, so
// LoadSeenURLs errors are advisory.
type Store interface {
	// LoadSeenURLs returns every URL persisted by earlier runs.
	LoadSeenURLs(ctx context.Context) ([]string, error)
	// SaveSeenURLs union-merges the URLs with whatever is already persisted.
	SaveSeenURLs(ctx context.Context, urls []string) error
	// SaveArticles appends article records to the persisted article log.
	SaveArticles(ctx context.Context, articles []*article.Article) error
	// SaveRunSummary appends one run summary to the run log.
	SaveRunSummary(ctx context.Context, summary collect.Summary) error

	// ListArticles returns the most recently persisted records, newest first.
	ListArticles(ctx context.Context, limit int) ([]Record, error)
	// ListRuns returns the most recent run summaries, newest first.
	ListRuns(ctx context.Context, limit int) ([]collect.Summary, error)

	Close() error
}
