package storage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
	"skylight.fyi/adwatch/internal/dedup"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()

	store, err := NewJSONStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return store
}

func TestSeenURLsRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	urls, err := store.LoadSeenURLs(ctx)
	if err != nil {
		t.Fatalf("LoadSeenURLs on empty store: %v", err)
	}
	if len(urls) != 0 {
		t.Fatalf("expected no urls, got %d", len(urls))
	}

	if err := store.SaveSeenURLs(ctx, []string{"https://a.example/1", "https://a.example/2"}); err != nil {
		t.Fatalf("SaveSeenURLs: %v", err)
	}
	if err := store.SaveSeenURLs(ctx, []string{"https://a.example/2", "https://a.example/3"}); err != nil {
		t.Fatalf("SaveSeenURLs second batch: %v", err)
	}

	urls, err = store.LoadSeenURLs(ctx)
	if err != nil {
		t.Fatalf("LoadSeenURLs: %v", err)
	}
	if len(urls) != 3 {
		t.Fatalf("expected union of 3 urls, got %d: %v", len(urls), urls)
	}
}

func TestSeedFromStoreRejectsKnownURLs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	known := "https://news.example/old-story"
	if err := store.SaveSeenURLs(ctx, []string{known}); err != nil {
		t.Fatalf("SaveSeenURLs: %v", err)
	}

	urls, err := store.LoadSeenURLs(ctx)
	if err != nil {
		t.Fatalf("LoadSeenURLs: %v", err)
	}

	set := dedup.NewStore()
	set.Seed(urls)

	old := article.New(known, "Old Story", "Google News", time.Now().UTC())
	if set.Admit(old) {
		t.Fatal("url persisted by a previous run was admitted again")
	}

	fresh := article.New("https://news.example/new-story", "New Story", "Google News", time.Now().UTC())
	if !set.Admit(fresh) {
		t.Fatal("fresh url was rejected")
	}
}

func TestSaveArticlesAppendsAndListsNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	first := article.New("https://news.example/1", "First", "Bing News", time.Now().UTC())
	second := article.New("https://news.example/2", "Second", "Bing News", time.Now().UTC())

	if err := store.SaveArticles(ctx, []*article.Article{first}); err != nil {
		t.Fatalf("SaveArticles: %v", err)
	}
	if err := store.SaveArticles(ctx, []*article.Article{second}); err != nil {
		t.Fatalf("SaveArticles append: %v", err)
	}

	records, err := store.ListArticles(ctx, 0)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].URL != second.URL {
		t.Fatalf("expected newest record first, got %s", records[0].URL)
	}

	limited, err := store.ListArticles(ctx, 1)
	if err != nil {
		t.Fatalf("ListArticles with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].URL != second.URL {
		t.Fatalf("limit not honored: %+v", limited)
	}
}

func TestRunSummariesRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	summaries := []collect.Summary{
		{TotalArticles: 3, NewArticles: 2, Duplicates: 1},
		{TotalArticles: 5, NewArticles: 5},
	}
	for _, s := range summaries {
		if err := store.SaveRunSummary(ctx, s); err != nil {
			t.Fatalf("SaveRunSummary: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].TotalArticles != 5 {
		t.Fatalf("expected newest run first, got %+v", runs[0])
	}
}

func TestExportDailyWritesDatedSnapshot(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	a := article.New("https://news.example/snap", "Snapshot", "RSS", time.Now().UTC())
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	path, err := store.ExportDaily(ctx, []*article.Article{a}, day)
	if err != nil {
		t.Fatalf("ExportDaily: %v", err)
	}

	var doc DailyExport
	if err := store.readJSON("articles_2026-08-29.json", &doc); err != nil {
		t.Fatalf("read snapshot %s: %v", path, err)
	}
	if doc.Count != 1 || len(doc.Articles) != 1 {
		t.Fatalf("unexpected snapshot contents: %+v", doc)
	}
	if doc.Articles[0].URL != a.URL {
		t.Fatalf("expected %s in snapshot, got %s", a.URL, doc.Articles[0].URL)
	}
}
