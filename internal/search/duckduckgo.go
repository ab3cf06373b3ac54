package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/config"
	"skylight.fyi/adwatch/internal/globaltime"
)

func (c *Client) searchDuckDuckGo(ctx context.Context, q config.SearchQuery) (Result, error) {
	keywords := strings.Join(q.Keywords, " ")
	query := url.QueryEscape(c.buildSiteQuery(keywords))
	searchURL := fmt.Sprintf("https://html.duckduckgo.com/html/?q=%s", query)

	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return Result{}, err
	}

	articles := parseDuckDuckGoResults(doc, q.ExcludeDomains)
	return newResult("duckduckgo", articles, q.MaxResults), nil
}

func parseDuckDuckGoResults(doc *goquery.Document, excludeDomains []string) []*article.Article {
	var articles []*article.Article
	now := globaltime.Now()

	doc.Find(".result").Each(func(_ int, item *goquery.Selection) {
		link := item.Find(".result__a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return
		}

		href = unwrapRedirect(href)
		if !strings.HasPrefix(href, "http") {
			return
		}
		if isExcluded(href, excludeDomains) {
			return
		}
		articles = append(articles, article.New(href, title, "DuckDuckGo", now))
	})

	return dedupeByURL(articles)
}

// unwrapRedirect extracts the target URL from DuckDuckGo's uddg redirect
// links.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
