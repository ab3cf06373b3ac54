package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
)

const (
	maxAttempts    = 3
	initialBackoff = 2 * time.Second
	requestTimeout = 10 * time.Second

	maxListedArticles = 10
	maxTitleChars     = 50
	maxShownTerms     = 3
)

// block is a Slack Block Kit block. Only the fields the digest message
// uses are modeled.
type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type message struct {
	Blocks []block `json:"blocks"`
}

// Notifier posts run digests to a Slack incoming webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	backoff    time.Duration
	logger     zerolog.Logger
}

func NewNotifier(webhookURL string, logger zerolog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: requestTimeout},
		backoff:    initialBackoff,
		logger:     logger,
	}
}

// Configured reports whether a webhook URL is set.
func (n *Notifier) Configured() bool {
	return strings.TrimSpace(n.webhookURL) != ""
}

// SendDigest posts the run digest. A missing webhook URL is not an
// error, the notification is just skipped.
func (n *Notifier) SendDigest(ctx context.Context, payload collect.Payload, reportPath string) (bool, error) {
	if !n.Configured() {
		n.logger.Warn().Msg("no slack webhook url configured, skipping notification")
		return false, nil
	}

	msg := buildDigest(payload, reportPath)
	if err := n.post(ctx, msg); err != nil {
		return false, err
	}

	n.logger.Info().Msg("slack notification sent")
	return true, nil
}

// SendErrorAlert posts a standalone alert listing collection errors.
func (n *Notifier) SendErrorAlert(ctx context.Context, errs []string) (bool, error) {
	if !n.Configured() || len(errs) == 0 {
		return false, nil
	}

	lines := make([]string, 0, 5)
	for _, e := range errs {
		if len(lines) == 5 {
			break
		}
		if len(e) > 100 {
			e = e[:100]
		}
		lines = append(lines, "• "+e)
	}

	msg := message{Blocks: []block{
		{Type: "header", Text: &text{Type: "plain_text", Text: "⚠️ Ad Threat Collector Errors", Emoji: true}},
		{Type: "section", Text: &text{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*%d errors occurred:*\n%s", len(errs), strings.Join(lines, "\n")),
		}},
	}}
	if err := n.post(ctx, msg); err != nil {
		return false, err
	}
	return true, nil
}

func buildDigest(payload collect.Payload, reportPath string) message {
	high, medium := 0, 0
	for _, a := range payload.TopArticles {
		switch {
		case a.Score() >= 0.6:
			high++
		case a.Score() >= 0.3:
			medium++
		}
	}

	blocks := []block{
		{Type: "header", Text: &text{Type: "plain_text", Text: "🔔 Ad Threat Daily Intelligence", Emoji: true}},
		{Type: "section", Text: &text{
			Type: "mrkdwn",
			Text: fmt.Sprintf("*%d new articles* found (%d total processed)\n🟢 High relevance: %d  |  🟡 Medium: %d",
				payload.NewArticles, payload.TotalArticles, high, medium),
		}},
		{Type: "divider"},
	}

	if len(payload.TopArticles) > 0 {
		listed := payload.TopArticles
		if len(listed) > maxListedArticles {
			listed = listed[:maxListedArticles]
		}

		lines := make([]string, 0, len(listed))
		for _, a := range listed {
			lines = append(lines, articleLine(a))
		}
		blocks = append(blocks, block{Type: "section", Text: &text{
			Type: "mrkdwn",
			Text: "*Top Articles by Relevance:*\n" + strings.Join(lines, "\n"),
		}})
	}

	if reportPath != "" {
		blocks = append(blocks, block{Type: "context", Elements: []text{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("📄 Full HTML report saved to: `%s`", reportPath),
		}}})
	}

	if len(payload.Errors) > 0 {
		blocks = append(blocks, block{Type: "context", Elements: []text{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("⚠️ %d errors occurred during collection", len(payload.Errors)),
		}}})
	}

	return message{Blocks: blocks}
}

func articleLine(a *article.Article) string {
	score := a.Score()

	emoji := "⚪"
	switch {
	case score >= 0.6:
		emoji = "🟢"
	case score >= 0.3:
		emoji = "🟡"
	}

	title := a.Title
	if len(title) > maxTitleChars {
		title = title[:maxTitleChars] + "..."
	}

	terms := ""
	if len(a.MatchedTerms) > 0 {
		shown := a.MatchedTerms
		if len(shown) > maxShownTerms {
			shown = shown[:maxShownTerms]
		}
		terms = fmt.Sprintf(" `%s`", strings.Join(shown, ", "))
	}

	return fmt.Sprintf("%s *%.0f%%* <%s|%s>%s", emoji, score*100, a.URL, title, terms)
}

func (n *Notifier) post(ctx context.Context, msg message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode slack message: %w", err)
	}

	backoff := n.backoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = n.postOnce(ctx, body)
		if lastErr == nil {
			return nil
		}

		n.logger.Warn().Err(lastErr).Int("attempt", attempt).Msg("slack webhook post failed")
		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("send slack notification after %d attempts: %w", maxAttempts, lastErr)
}

func (n *Notifier) postOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
