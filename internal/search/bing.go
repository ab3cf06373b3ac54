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

func (c *Client) searchBing(ctx context.Context, q config.SearchQuery) (Result, error) {
	keywords := strings.Join(q.Keywords, " ")
	query := url.QueryEscape(c.buildSiteQuery(keywords))
	searchURL := fmt.Sprintf("https://www.bing.com/news/search?q=%s&count=%d", query, q.MaxResults)

	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return Result{}, err
	}

	articles := parseBingResults(doc, q.ExcludeDomains)
	return newResult("bing", articles, q.MaxResults), nil
}

func parseBingResults(doc *goquery.Document, excludeDomains []string) []*article.Article {
	var articles []*article.Article
	now := globaltime.Now()

	doc.Find(".news-card").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a.title").First()
		if link.Length() == 0 {
			link = item.Find("a").First()
		}

		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" || !strings.HasPrefix(href, "http") {
			return
		}
		if isExcluded(href, excludeDomains) {
			return
		}
		articles = append(articles, article.New(href, title, "Bing News", now))
	})
	if len(articles) > 0 {
		return dedupeByURL(articles)
	}

	// Fallback: any outbound link that looks like a headline.
	doc.Find(`a[href*="http"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if len(title) <= 20 || !strings.HasPrefix(href, "http") {
			return
		}
		if strings.Contains(href, "bing.com") || strings.Contains(href, "microsoft.com") {
			return
		}
		if isExcluded(href, excludeDomains) {
			return
		}
		if len(title) > 200 {
			title = title[:200]
		}
		articles = append(articles, article.New(href, title, "Bing", now))
	})

	return dedupeByURL(articles)
}
