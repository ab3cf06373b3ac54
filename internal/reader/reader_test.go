package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<title>Short</title>
<meta property="og:title" content="Malvertising ring dismantled after long investigation">
<meta name="description" content="Authorities dismantled a malvertising ring.">
<meta name="author" content="Jane Reporter">
<meta property="article:published_time" content="2026-08-12T10:30:00Z">
</head>
<body>
<article>
<h1>Malvertising ring dismantled</h1>
<p>Authorities announced today that a long-running malvertising operation has been dismantled after a coordinated investigation across several countries.</p>
<p>The operation served fraudulent advertising to millions of users and relied on fake ads placed through compromised ad networks.</p>
</article>
</body>
</html>`

func TestParseExtractsMetadata(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	p := NewParser(zerolog.Nop(), Options{HTTPClient: srv.Client()})
	a := article.New(srv.URL+"/story", "Short", "Google News", time.Now())

	if err := p.Parse(context.Background(), a); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if a.Status != article.StatusParsed {
		t.Fatalf("unexpected status: %q", a.Status)
	}
	if a.Title != "Malvertising ring dismantled after long investigation" {
		t.Fatalf("title not upgraded: %q", a.Title)
	}
	if a.Summary != "Authorities dismantled a malvertising ring." {
		t.Fatalf("unexpected summary: %q", a.Summary)
	}
	if a.Author != "Jane Reporter" {
		t.Fatalf("unexpected author: %q", a.Author)
	}
	if a.PublishedDate == nil || !a.PublishedDate.Equal(time.Date(2026, 8, 12, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published date: %v", a.PublishedDate)
	}
	if a.Content == "" {
		t.Fatalf("expected extracted content")
	}
}

func TestParseMarksFailedOnHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	p := NewParser(zerolog.Nop(), Options{HTTPClient: srv.Client()})
	a := article.New(srv.URL+"/missing", "Missing", "Bing News", time.Now())

	if err := p.Parse(context.Background(), a); err == nil {
		t.Fatalf("expected error for HTTP failure")
	}
	if a.Status != article.StatusFailed {
		t.Fatalf("unexpected status: %q", a.Status)
	}
	if a.ErrorMessage == "" {
		t.Fatalf("expected error message on failed article")
	}
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	input := "  First   paragraph \n\n Second\tparagraph \r\n\r\nThird line "
	want := "First paragraph\n\nSecond paragraph\n\nThird line"
	if got := CleanText(input); got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestExtractSummaryFallsBackToContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Plain page title for a story</title></head><body><article><p>First sentence of a reasonably long article body that keeps going for a while before it ends. Second sentence follows with additional detail about the advertising fraud investigation. Third sentence adds even more.</p></article></body></html>`))
	}))
	defer srv.Close()

	p := NewParser(zerolog.Nop(), Options{HTTPClient: srv.Client()})
	a := article.New(srv.URL, "t", "DuckDuckGo", time.Now())
	if err := p.Parse(context.Background(), a); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.Summary == "" {
		t.Fatalf("expected summary generated from content")
	}
	if len(a.Summary) > summaryMaxChars {
		t.Fatalf("summary too long: %d chars", len(a.Summary))
	}
}
