package article

import "time"

// Status tracks where an article is in the collection lifecycle.
type Status string

const (
	StatusNew       Status = "new"
	StatusParsed    Status = "parsed"
	StatusFailed    Status = "failed"
	StatusDuplicate Status = "duplicate"
)

// Article is a discovered piece of content passed between pipeline stages.
// Summary, Content, Author and PublishedDate stay empty until the reader
// has fetched the page; RelevanceScore and MatchedTerms stay unset until
// the scorer has run.
type Article struct {
	URL   string
	Title string

	Source       string
	DiscoveredAt time.Time

	Summary       string
	Content       string
	Author        string
	PublishedDate *time.Time

	Tags           []string
	RelevanceScore *float64
	MatchedTerms   []string

	Status       Status
	ErrorMessage string
}

// New returns an article in the initial state.
func New(url, title, source string, discoveredAt time.Time) *Article {
	return &Article{
		URL:          url,
		Title:        title,
		Source:       source,
		DiscoveredAt: discoveredAt,
		Status:       StatusNew,
	}
}

// Score returns the relevance score, treating unscored articles as zero.
func (a *Article) Score() float64 {
	if a == nil || a.RelevanceScore == nil {
		return 0
	}
	return *a.RelevanceScore
}

// Scored reports whether the relevance scorer has run for this article.
func (a *Article) Scored() bool {
	return a != nil && a.RelevanceScore != nil
}

// SetScore assigns the relevance score and matched terms in one step.
func (a *Article) SetScore(score float64, matched []string) {
	if a == nil {
		return
	}
	a.RelevanceScore = &score
	a.MatchedTerms = matched
}
