package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
)

const (
	DefaultFetchTimeout  = 12 * time.Second
	DefaultBodyByteLimit = 2 * 1024 * 1024

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	summaryMaxChars = 300
)

// Options controls HTTP behavior for article parsing.
type Options struct {
	Timeout       time.Duration
	BodyByteLimit int64
	UserAgent     string
	HTTPClient    *http.Client
}

// Parser fetches article pages and fills in content, summary, author and
// published date.
type Parser struct {
	opts   Options
	logger zerolog.Logger
}

func NewParser(logger zerolog.Logger, opts Options) *Parser {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.BodyByteLimit <= 0 {
		opts.BodyByteLimit = DefaultBodyByteLimit
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse fetches and extracts the article in place. Fetch or extraction
// failures move the article to the failed state with the error recorded;
// Parse itself only returns the error for the caller's run log.
func (p *Parser) Parse(ctx context.Context, a *article.Article) error {
	if a == nil {
		return fmt.Errorf("article is nil")
	}

	body, err := p.fetch(ctx, a.URL)
	if err != nil {
		a.Status = article.StatusFailed
		a.ErrorMessage = err.Error()
		return err
	}

	pageURL, err := url.Parse(a.URL)
	if err != nil {
		a.Status = article.StatusFailed
		a.ErrorMessage = fmt.Sprintf("parse url: %v", err)
		return fmt.Errorf("parse url: %w", err)
	}

	if content, extractErr := extractContent(body, pageURL); extractErr == nil {
		a.Content = content
	} else {
		p.logger.Debug().Err(extractErr).Str("url", a.URL).Msg("readability extraction failed")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		a.Status = article.StatusFailed
		a.ErrorMessage = fmt.Sprintf("parse html: %v", err)
		return fmt.Errorf("parse html: %w", err)
	}

	a.Summary = extractSummary(doc, a.Content)
	a.Author = extractAuthor(doc)
	a.PublishedDate = extractPublishedDate(doc)

	// Keep the page's own title when it is more complete than the search
	// snippet.
	if pageTitle := extractTitle(doc); len(pageTitle) > len(a.Title) {
		a.Title = pageTitle
	}

	a.Status = article.StatusParsed
	p.logger.Debug().Str("url", a.URL).Int("content_chars", len(a.Content)).Msg("article parsed")
	return nil
}

func (p *Parser) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	page := strings.TrimSpace(pageURL)
	if page == "" {
		return nil, fmt.Errorf("article URL is empty")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, page, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := p.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.BodyByteLimit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func extractContent(body []byte, pageURL *url.URL) (string, error) {
	parsed, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := parsed.RenderText(&rendered); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}

	text := CleanText(rendered.String())
	if text == "" {
		text = CleanText(parsed.Excerpt())
	}
	if text == "" {
		return "", fmt.Errorf("reader extracted empty content")
	}
	return text, nil
}

func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractSummary(doc *goquery.Document, content string) string {
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		return strings.TrimSpace(desc)
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		return strings.TrimSpace(desc)
	}

	if content == "" {
		return ""
	}

	// Fall back to the leading content, cut at a sentence boundary.
	summary := content
	if len(summary) > summaryMaxChars {
		summary = summary[:summaryMaxChars]
	}
	if last := strings.LastIndexByte(summary, '.'); last > 100 {
		summary = summary[:last+1]
	}
	return strings.TrimSpace(summary)
}

var bylinePrefix = regexp.MustCompile(`(?i)^by\s+`)

func extractAuthor(doc *goquery.Document) string {
	if author, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(author) != "" {
		return strings.TrimSpace(author)
	}
	if link := strings.TrimSpace(doc.Find(`a[rel="author"]`).First().Text()); link != "" {
		return link
	}

	for _, selector := range []string{".author", ".byline", ".post-author"} {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		text = bylinePrefix.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)
		if text != "" && len(text) < 100 {
			return text
		}
	}
	return ""
}

func extractPublishedDate(doc *goquery.Document) *time.Time {
	candidates := make([]string, 0, 4)
	for _, attr := range []string{"article:published_time", "datePublished", "pubdate"} {
		if v, ok := doc.Find(`meta[property="` + attr + `"]`).Attr("content"); ok {
			candidates = append(candidates, v)
		}
		if v, ok := doc.Find(`meta[name="` + attr + `"]`).Attr("content"); ok {
			candidates = append(candidates, v)
		}
	}
	if v, ok := doc.Find("time").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}

	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if ts, err := dateparse.ParseAny(raw); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}

// CleanText normalizes line endings and collapses extra in-line whitespace.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}
