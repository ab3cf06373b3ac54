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

func (c *Client) searchGoogle(ctx context.Context, q config.SearchQuery) (Result, error) {
	keywords := strings.Join(q.Keywords, " ")
	query := url.QueryEscape(c.buildSiteQuery(keywords))
	searchURL := fmt.Sprintf("https://www.google.com/search?q=%s&tbm=nws&num=%d", query, q.MaxResults)

	doc, err := c.fetchDocument(ctx, searchURL)
	if err != nil {
		return Result{}, err
	}

	articles := parseGoogleResults(doc, q.ExcludeDomains)
	return newResult("google", articles, q.MaxResults), nil
}

func parseGoogleResults(doc *goquery.Document, excludeDomains []string) []*article.Article {
	var articles []*article.Article
	now := globaltime.Now()

	// Google News result cards.
	doc.Find("div.SoaBEf").Each(func(_ int, item *goquery.Selection) {
		link, ok := item.Find("a").First().Attr("href")
		title := strings.TrimSpace(item.Find("div.MBeuO").First().Text())
		if !ok || title == "" {
			return
		}
		if isExcluded(link, excludeDomains) {
			return
		}
		articles = append(articles, article.New(link, title, "Google News", now))
	})
	if len(articles) > 0 {
		return dedupeByURL(articles)
	}

	// Fallback for the generic results layout.
	doc.Find("div.g").Each(func(_ int, item *goquery.Selection) {
		link, ok := item.Find("a").First().Attr("href")
		title := strings.TrimSpace(item.Find("h3").First().Text())
		if !ok || title == "" || !strings.HasPrefix(link, "http") {
			return
		}
		if isExcluded(link, excludeDomains) {
			return
		}
		articles = append(articles, article.New(link, title, "Google", now))
	})

	return dedupeByURL(articles)
}
