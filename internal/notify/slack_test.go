package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/collect"
)

func samplePayload() collect.Payload {
	now := time.Now().UTC()

	top := article.New("https://news.example/fraud", "Ad Fraud Scheme Uncovered in Mobile Apps", "Google News", now)
	top.SetScore(0.85, []string{"ad fraud", "malvertising", "click fraud", "botnet"})

	mid := article.New("https://news.example/scam", "Scam Ads Target Shoppers", "Bing News", now)
	mid.SetScore(0.4, []string{"scam ads"})

	return collect.Payload{
		TotalArticles: 12,
		NewArticles:   7,
		TopArticles:   []*article.Article{top, mid},
		Errors:        []string{"google: connection reset"},
		Timestamp:     now,
	}
}

func TestSendDigestPostsBlockKitMessage(t *testing.T) {
	t.Parallel()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, zerolog.Nop())
	sent, err := n.SendDigest(context.Background(), samplePayload(), "/tmp/report_2026-08-29.html")
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if !sent {
		t.Fatal("expected notification to be sent")
	}

	var msg message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("decode posted message: %v", err)
	}
	if len(msg.Blocks) == 0 || msg.Blocks[0].Type != "header" {
		t.Fatalf("expected leading header block, got %+v", msg.Blocks)
	}

	raw := string(body)
	if !strings.Contains(raw, "*7 new articles*") {
		t.Error("new article count missing")
	}
	if !strings.Contains(raw, "High relevance: 1") {
		t.Error("high tier count missing")
	}
	if !strings.Contains(raw, "ad fraud, malvertising, click fraud") {
		t.Error("expected only top three matched terms")
	}
	if strings.Contains(raw, "botnet") {
		t.Error("fourth matched term should be dropped")
	}
	if !strings.Contains(raw, "report_2026-08-29.html") {
		t.Error("report path context block missing")
	}
	if !strings.Contains(raw, "1 errors occurred") {
		t.Error("error context block missing")
	}
}

func TestSendDigestSkipsWithoutWebhook(t *testing.T) {
	t.Parallel()

	n := NewNotifier("", zerolog.Nop())
	sent, err := n.SendDigest(context.Background(), samplePayload(), "")
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if sent {
		t.Fatal("notification should be skipped without a webhook url")
	}
}

func TestSendDigestRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, zerolog.Nop())
	n.client = srv.Client()
	n.backoff = time.Millisecond

	sent, err := n.SendDigest(context.Background(), samplePayload(), "")
	if err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if !sent {
		t.Fatal("expected success after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSendErrorAlert(t *testing.T) {
	t.Parallel()

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, zerolog.Nop())
	sent, err := n.SendErrorAlert(context.Background(), []string{"bing: timeout", "rss: parse failure"})
	if err != nil {
		t.Fatalf("SendErrorAlert: %v", err)
	}
	if !sent {
		t.Fatal("expected alert to be sent")
	}
	if !strings.Contains(string(body), "*2 errors occurred:*") {
		t.Errorf("error count missing: %s", body)
	}
}
