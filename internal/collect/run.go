package collect

import (
	"math"
	"sort"
	"time"

	"skylight.fyi/adwatch/internal/article"
	"skylight.fyi/adwatch/internal/dedup"
	"skylight.fyi/adwatch/internal/globaltime"
)

// DefaultTopArticles is how many articles a notification payload carries
// when the caller does not ask for a specific count.
const DefaultTopArticles = 5

// Options bound a single collection run.
type Options struct {
	MaxArticles int
	Dedup       bool
}

// Run accumulates one execution's articles, errors and outcome. It owns
// the article list; the dedup store it references is seeded from persisted
// history before the first admission.
type Run struct {
	store     *dedup.Store
	opts      Options
	startTime time.Time

	articles []*article.Article
	errors   []string
	searches int
	notified bool
}

// Summary is the read-only end-of-run record handed to persistence.
type Summary struct {
	StartTime         time.Time      `json:"start_time"`
	DurationSeconds   float64        `json:"duration_seconds"`
	TotalArticles     int            `json:"total_articles"`
	NewArticles       int            `json:"new_articles"`
	Duplicates        int            `json:"duplicates"`
	Failed            int            `json:"failed"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
	SourceBreakdown   map[string]int `json:"source_breakdown"`
	SearchesPerformed int            `json:"searches_performed"`
	Errors            []string       `json:"errors"`
	ErrorCount        int            `json:"error_count"`
	NotificationSent  bool           `json:"notification_sent"`
}

// Payload is the ranked selection handed to the notification collaborator.
type Payload struct {
	TotalArticles int
	NewArticles   int
	TopArticles   []*article.Article
	Errors        []string
	Timestamp     time.Time
}

// NewRun starts a run against a pre-seeded dedup store.
func NewRun(store *dedup.Store, opts Options) *Run {
	return &Run{
		store:     store,
		opts:      opts,
		startTime: globaltime.Now(),
	}
}

// AddArticle admits a candidate into the run. A candidate rejected by the
// dedup store is marked duplicate and not appended; a candidate arriving
// after the cap is reached is silently rejected with no status change.
// Cap rejection is an outcome, not an error.
func (r *Run) AddArticle(a *article.Article) bool {
	if r == nil || a == nil {
		return false
	}

	if r.opts.MaxArticles > 0 && len(r.articles) >= r.opts.MaxArticles {
		return false
	}

	if r.opts.Dedup && r.store != nil {
		if !r.store.Admit(a) {
			a.Status = article.StatusDuplicate
			return false
		}
	}

	r.articles = append(r.articles, a)
	return true
}

// Articles returns every admitted article in insertion order.
func (r *Run) Articles() []*article.Article {
	if r == nil {
		return nil
	}
	return r.articles
}

// NewArticles returns, in insertion order, the articles still in play:
// status new or parsed.
func (r *Run) NewArticles() []*article.Article {
	if r == nil {
		return nil
	}
	fresh := make([]*article.Article, 0, len(r.articles))
	for _, a := range r.articles {
		if a.Status == article.StatusNew || a.Status == article.StatusParsed {
			fresh = append(fresh, a)
		}
	}
	return fresh
}

// AddError records a collaborator failure without aborting the run.
func (r *Run) AddError(msg string) {
	if r == nil || msg == "" {
		return
	}
	r.errors = append(r.errors, msg)
}

func (r *Run) Errors() []string {
	if r == nil {
		return nil
	}
	return r.errors
}

// RecordSearch counts one completed search-engine result set.
func (r *Run) RecordSearch() {
	if r != nil {
		r.searches++
	}
}

// MarkNotified records that the notification collaborator succeeded.
func (r *Run) MarkNotified() {
	if r != nil {
		r.notified = true
	}
}

func (r *Run) StartTime() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.startTime
}

// Store exposes the run's dedup store for end-of-run persistence.
func (r *Run) Store() *dedup.Store {
	if r == nil {
		return nil
	}
	return r.store
}

// Summary computes the run record on demand. Pure read of current state.
func (r *Run) Summary() Summary {
	if r == nil {
		return Summary{}
	}

	statusCounts := make(map[string]int)
	sourceCounts := make(map[string]int)
	for _, a := range r.articles {
		statusCounts[string(a.Status)]++
		sourceCounts[a.Source]++
	}

	elapsed := globaltime.Since(r.startTime).Seconds()

	return Summary{
		StartTime:         r.startTime,
		DurationSeconds:   math.Round(elapsed*100) / 100,
		TotalArticles:     len(r.articles),
		NewArticles:       len(r.NewArticles()),
		Duplicates:        statusCounts[string(article.StatusDuplicate)],
		Failed:            statusCounts[string(article.StatusFailed)],
		StatusBreakdown:   statusCounts,
		SourceBreakdown:   sourceCounts,
		SearchesPerformed: r.searches,
		Errors:            r.errors,
		ErrorCount:        len(r.errors),
		NotificationSent:  r.notified,
	}
}

// NotificationPayload selects the top scored articles for notification.
// Scored articles sort by score descending with ties keeping insertion
// order; when nothing has been scored at all, the first topN new articles
// are taken in insertion order instead.
func (r *Run) NotificationPayload(topN int) Payload {
	if topN <= 0 {
		topN = DefaultTopArticles
	}

	fresh := r.NewArticles()

	anyScored := false
	for _, a := range fresh {
		if a.Scored() {
			anyScored = true
			break
		}
	}

	var top []*article.Article
	if anyScored {
		ranked := make([]*article.Article, len(fresh))
		copy(ranked, fresh)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score() > ranked[j].Score()
		})
		top = ranked
	} else {
		top = fresh
	}
	if len(top) > topN {
		top = top[:topN]
	}

	return Payload{
		TotalArticles: len(r.Articles()),
		NewArticles:   len(fresh),
		TopArticles:   top,
		Errors:        r.Errors(),
		Timestamp:     globaltime.Now(),
	}
}
