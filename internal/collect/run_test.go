package collect

import (
	"fmt"
	"testing"
	"time"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/dedup"
	"skylight.fyi/adwatch/internal/globaltime"
)

func newCandidate(i int) *article.Article {
	return article.New(fmt.Sprintf("https://example.com/story-%d", i), fmt.Sprintf("Story %d", i), "Google News", time.Now())
}

func TestAddArticleEnforcesCap(t *testing.T) {
	t.Parallel()

	const limit = 3
	run := NewRun(dedup.NewStore(), Options{MaxArticles: limit, Dedup: true})

	for i := 0; i < limit; i++ {
		if !run.AddArticle(newCandidate(i)) {
			t.Fatalf("admission %d rejected below cap", i)
		}
	}

	overflow := newCandidate(99)
	if run.AddArticle(overflow) {
		t.Fatalf("admission above cap accepted")
	}
	if got := len(run.Articles()); got != limit {
		t.Fatalf("expected %d articles, got %d", limit, got)
	}
	// Cap rejection leaves the candidate untouched.
	if overflow.Status != article.StatusNew {
		t.Fatalf("cap rejection changed status to %q", overflow.Status)
	}
	if run.Store().IsDuplicate(overflow.URL) {
		t.Fatalf("cap rejection leaked the URL into the dedup store")
	}
}

func TestAddArticleMarksDuplicates(t *testing.T) {
	t.Parallel()

	run := NewRun(dedup.NewStore(), Options{MaxArticles: 10, Dedup: true})

	first := newCandidate(1)
	second := article.New(first.URL, "Same story elsewhere", "Bing News", time.Now())

	if !run.AddArticle(first) {
		t.Fatalf("first admission rejected")
	}
	if run.AddArticle(second) {
		t.Fatalf("duplicate URL admitted")
	}
	if second.Status != article.StatusDuplicate {
		t.Fatalf("rejected duplicate has status %q", second.Status)
	}
	if got := len(run.Articles()); got != 1 {
		t.Fatalf("duplicate stored in run: %d articles", got)
	}
}

func TestAddArticleWithoutDedup(t *testing.T) {
	t.Parallel()

	run := NewRun(nil, Options{MaxArticles: 10})

	a := newCandidate(1)
	b := article.New(a.URL, a.Title, a.Source, time.Now())
	if !run.AddArticle(a) || !run.AddArticle(b) {
		t.Fatalf("dedup disabled but admission rejected")
	}
	if got := len(run.Articles()); got != 2 {
		t.Fatalf("expected 2 articles with dedup disabled, got %d", got)
	}
}

func TestNewArticlesExcludesTerminalFailures(t *testing.T) {
	t.Parallel()

	run := NewRun(dedup.NewStore(), Options{MaxArticles: 10, Dedup: true})

	kept := newCandidate(1)
	parsed := newCandidate(2)
	failed := newCandidate(3)
	run.AddArticle(kept)
	run.AddArticle(parsed)
	run.AddArticle(failed)

	parsed.Status = article.StatusParsed
	failed.Status = article.StatusFailed

	fresh := run.NewArticles()
	if len(fresh) != 2 {
		t.Fatalf("expected 2 new articles, got %d", len(fresh))
	}
	if fresh[0] != kept || fresh[1] != parsed {
		t.Fatalf("new articles lost insertion order")
	}
}

func TestSummaryCounts(t *testing.T) {
	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(start)
	defer globaltime.ResetTime()

	run := NewRun(dedup.NewStore(), Options{MaxArticles: 10, Dedup: true})

	ok := newCandidate(1)
	failed := newCandidate(2)
	bing := article.New("https://b.example/3", "Bing story", "Bing News", start)
	run.AddArticle(ok)
	run.AddArticle(failed)
	run.AddArticle(bing)
	run.AddArticle(article.New(ok.URL, "dup", "Google News", start))

	ok.Status = article.StatusParsed
	failed.Status = article.StatusFailed
	run.AddError("parse failed for something")
	run.RecordSearch()
	run.RecordSearch()
	run.MarkNotified()

	globaltime.SetMockTime(start.Add(90 * time.Second))
	summary := run.Summary()

	if summary.TotalArticles != 3 {
		t.Fatalf("unexpected total: %d", summary.TotalArticles)
	}
	if summary.NewArticles != 2 {
		t.Fatalf("unexpected new count: %d", summary.NewArticles)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected failed count: %d", summary.Failed)
	}
	// The duplicate was never stored, so it does not show up in counts.
	if summary.Duplicates != 0 {
		t.Fatalf("unexpected duplicates count: %d", summary.Duplicates)
	}
	if summary.SourceBreakdown["Google News"] != 2 || summary.SourceBreakdown["Bing News"] != 1 {
		t.Fatalf("unexpected source breakdown: %v", summary.SourceBreakdown)
	}
	if summary.DurationSeconds != 90 {
		t.Fatalf("unexpected duration: %v", summary.DurationSeconds)
	}
	if summary.SearchesPerformed != 2 || summary.ErrorCount != 1 || !summary.NotificationSent {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestNotificationPayloadRanksByScore(t *testing.T) {
	t.Parallel()

	run := NewRun(dedup.NewStore(), Options{MaxArticles: 20, Dedup: true})

	var admitted []*article.Article
	for i := 0; i < 8; i++ {
		a := newCandidate(i)
		run.AddArticle(a)
		admitted = append(admitted, a)
	}

	admitted[2].SetScore(0.9, []string{"malvertising"})
	admitted[5].SetScore(0.4, nil)
	admitted[6].SetScore(0.9, nil)

	payload := run.NotificationPayload(3)
	if len(payload.TopArticles) != 3 {
		t.Fatalf("expected 3 top articles, got %d", len(payload.TopArticles))
	}
	// Ties keep insertion order, unscored sort as zero.
	if payload.TopArticles[0] != admitted[2] || payload.TopArticles[1] != admitted[6] || payload.TopArticles[2] != admitted[5] {
		t.Fatalf("unexpected ranking: %v", payload.TopArticles)
	}
	if payload.TotalArticles != 8 || payload.NewArticles != 8 {
		t.Fatalf("unexpected payload counts: %+v", payload)
	}
}

func TestNotificationPayloadFallsBackToInsertionOrder(t *testing.T) {
	t.Parallel()

	run := NewRun(dedup.NewStore(), Options{MaxArticles: 20, Dedup: true})
	var admitted []*article.Article
	for i := 0; i < 7; i++ {
		a := newCandidate(i)
		run.AddArticle(a)
		admitted = append(admitted, a)
	}

	payload := run.NotificationPayload(0)
	if len(payload.TopArticles) != DefaultTopArticles {
		t.Fatalf("expected default top count, got %d", len(payload.TopArticles))
	}
	for i, a := range payload.TopArticles {
		if a != admitted[i] {
			t.Fatalf("fallback lost insertion order at %d", i)
		}
	}
}
