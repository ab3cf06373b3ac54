package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/globaltime"
)

// FetchFeeds pulls every configured RSS feed and flattens the items into
// article candidates. Feed failures are joined into the returned error
// while the remaining feeds still contribute.
func (c *Client) FetchFeeds(ctx context.Context, feedURLs []string) (Result, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = c.opts.UserAgent

	var articles []*article.Article
	var errs []error
	now := globaltime.Now()

	for _, feedURL := range feedURLs {
		feed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("rss feed %s: %w", feedURL, err))
			continue
		}

		for _, item := range feed.Items {
			link := strings.TrimSpace(item.Link)
			title := strings.TrimSpace(item.Title)
			if link == "" || title == "" {
				continue
			}

			a := article.New(link, title, "RSS", now)
			a.Summary = strings.TrimSpace(item.Description)
			if len(item.Authors) > 0 && item.Authors[0] != nil {
				a.Author = strings.TrimSpace(item.Authors[0].Name)
			}
			if item.PublishedParsed != nil {
				published := item.PublishedParsed.UTC()
				a.PublishedDate = &published
			}
			articles = append(articles, a)
		}

		c.logger.Info().Str("feed", feedURL).Int("items", len(feed.Items)).Msg("rss feed loaded")
	}

	articles = dedupeByURL(articles)
	return Result{
		Articles:   articles,
		Engine:     "rss",
		Timestamp:  now,
		TotalFound: len(articles),
	}, errors.Join(errs...)
}
