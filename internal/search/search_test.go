package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestParseGoogleResults(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<div class="SoaBEf">
  <a href="https://news.example/a"><div class="MBeuO">Malvertising wave hits ad networks</div></a>
</div>
<div class="SoaBEf">
  <a href="https://excluded.example/b"><div class="MBeuO">Excluded story</div></a>
</div>
<div class="SoaBEf">
  <a href="https://news.example/a"><div class="MBeuO">Duplicate of the first card</div></a>
</div>`)

	articles := parseGoogleResults(doc, []string{"excluded.example"})
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].URL != "https://news.example/a" {
		t.Fatalf("unexpected URL: %q", articles[0].URL)
	}
	if articles[0].Source != "Google News" {
		t.Fatalf("unexpected source: %q", articles[0].Source)
	}
}

func TestParseGoogleResultsFallbackSelector(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<div class="g">
  <a href="https://news.example/generic"><h3>Generic layout result headline</h3></a>
</div>
<div class="g">
  <a href="/relative"><h3>Relative link skipped</h3></a>
</div>`)

	articles := parseGoogleResults(doc, nil)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article from fallback, got %d", len(articles))
	}
	if articles[0].Source != "Google" {
		t.Fatalf("unexpected fallback source: %q", articles[0].Source)
	}
}

func TestParseBingResults(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<div class="news-card">
  <a class="title" href="https://news.example/bing">Scam ads network disrupted by regulators</a>
</div>`)

	articles := parseBingResults(doc, nil)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Source != "Bing News" {
		t.Fatalf("unexpected source: %q", articles[0].Source)
	}
}

func TestParseBingResultsFallbackFiltersOwnDomains(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<a href="https://www.bing.com/news/more">A bing navigation link long enough to pass</a>
<a href="https://news.example/story">An outbound headline link long enough to keep</a>
<a href="https://news.example/short">short</a>`)

	articles := parseBingResults(doc, nil)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article from fallback, got %d", len(articles))
	}
	if articles[0].URL != "https://news.example/story" {
		t.Fatalf("unexpected URL: %q", articles[0].URL)
	}
}

func TestParseDuckDuckGoUnwrapsRedirects(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, `
<div class="result">
  <a class="result__a" href="https://duckduckgo.com/l/?uddg=https%3A%2F%2Fnews.example%2Fddg&rut=abc">Fraudulent advertising crackdown announced</a>
</div>`)

	articles := parseDuckDuckGoResults(doc, nil)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].URL != "https://news.example/ddg" {
		t.Fatalf("redirect not unwrapped: %q", articles[0].URL)
	}
}

func TestBuildSiteQuery(t *testing.T) {
	t.Parallel()

	plain := NewClient(zerolog.Nop(), Options{})
	if got := plain.buildSiteQuery("ad fraud"); got != "ad fraud" {
		t.Fatalf("unexpected query without target sites: %q", got)
	}

	restricted := NewClient(zerolog.Nop(), Options{TargetSites: []string{"a.example", "b.example"}})
	want := "(ad fraud) (site:a.example OR site:b.example)"
	if got := restricted.buildSiteQuery("ad fraud"); got != want {
		t.Fatalf("unexpected site query\nwant: %q\ngot:  %q", want, got)
	}
}

func TestIsExcluded(t *testing.T) {
	t.Parallel()

	if !isExcluded("https://www.spam.example/story", []string{"spam.example"}) {
		t.Fatalf("expected exclusion match")
	}
	if isExcluded("https://news.example/story", []string{"spam.example"}) {
		t.Fatalf("unexpected exclusion")
	}
	if isExcluded("https://news.example/story", nil) {
		t.Fatalf("empty exclusion list should never match")
	}
}
