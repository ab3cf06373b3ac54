package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/config"
	"skylight.fyi/adwatch/internal/globaltime"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Result is one engine's answer to a query.
type Result struct {
	Articles   []*article.Article
	Engine     string
	Timestamp  time.Time
	TotalFound int
}

// Options configures the search client.
type Options struct {
	Delay       time.Duration
	Timeout     time.Duration
	TargetSites []string
	UserAgent   string
	HTTPClient  *http.Client
}

// Client issues search-engine queries and parses result pages.
type Client struct {
	opts   Options
	logger zerolog.Logger
}

func NewClient(logger zerolog.Logger, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{opts: opts, logger: logger}
}

// Search runs the query against every configured source. Per-source
// failures are joined into the returned error while the remaining sources
// still produce results; a partial answer is the normal case.
func (c *Client) Search(ctx context.Context, q config.SearchQuery) ([]Result, error) {
	var results []Result
	var errs []error

	for i, source := range q.Sources {
		if i > 0 && c.opts.Delay > 0 {
			select {
			case <-time.After(c.opts.Delay):
			case <-ctx.Done():
				return results, errors.Join(append(errs, ctx.Err())...)
			}
		}

		var result Result
		var err error
		switch strings.ToLower(strings.TrimSpace(source)) {
		case "google":
			result, err = c.searchGoogle(ctx, q)
		case "bing":
			result, err = c.searchBing(ctx, q)
		case "duckduckgo":
			result, err = c.searchDuckDuckGo(ctx, q)
		default:
			c.logger.Warn().Str("source", source).Msg("unknown search source")
			continue
		}

		if err != nil {
			errs = append(errs, fmt.Errorf("%s search failed: %w", source, err))
			continue
		}

		c.logger.Info().
			Str("engine", result.Engine).
			Int("found", result.TotalFound).
			Str("keywords", strings.Join(q.Keywords, " ")).
			Msg("search completed")
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

// buildSiteQuery restricts the keyword query to the configured target
// sites using engine-native site: operators.
func (c *Client) buildSiteQuery(keywords string) string {
	if len(c.opts.TargetSites) == 0 {
		return keywords
	}

	sites := make([]string, 0, len(c.opts.TargetSites))
	for _, site := range c.opts.TargetSites {
		sites = append(sites, "site:"+site)
	}
	return fmt.Sprintf("(%s) (%s)", keywords, strings.Join(sites, " OR "))
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}
	return doc, nil
}

// isExcluded checks the URL's host against the query's excluded domains.
func isExcluded(rawURL string, excludeDomains []string) bool {
	if len(excludeDomains) == 0 {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Host)
	for _, excluded := range excludeDomains {
		if excluded != "" && strings.Contains(host, strings.ToLower(excluded)) {
			return true
		}
	}
	return false
}

// dedupeByURL keeps the first article per URL, preserving order.
func dedupeByURL(articles []*article.Article) []*article.Article {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]*article.Article, 0, len(articles))
	for _, a := range articles {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		unique = append(unique, a)
	}
	return unique
}

func capResults(articles []*article.Article, max int) []*article.Article {
	if max > 0 && len(articles) > max {
		return articles[:max]
	}
	return articles
}

func newResult(engine string, articles []*article.Article, max int) Result {
	return Result{
		Articles:   capResults(articles, max),
		Engine:     engine,
		Timestamp:  globaltime.Now(),
		TotalFound: len(articles),
	}
}
