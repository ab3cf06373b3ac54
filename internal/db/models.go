package db

import (
	"encoding/json"
	"time"
)

// SeenURL maps adwatch.seen_urls, the cross-run deduplication set.
type SeenURL struct {
	URL       string    `gorm:"column:url;type:text;primaryKey"`
	FirstSeen time.Time `gorm:"column:first_seen;type:timestamptz;not null;default:now()"`
}

func (SeenURL) TableName() string { return "adwatch.seen_urls" }

// ArticleRow maps adwatch.articles.
type ArticleRow struct {
	ArticleID      int64           `gorm:"column:article_id;primaryKey;autoIncrement"`
	URL            string          `gorm:"column:url;type:text;not null"`
	Title          string          `gorm:"column:title;type:text;not null"`
	Source         string          `gorm:"column:source;type:text;not null"`
	DiscoveredAt   time.Time       `gorm:"column:discovered_at;type:timestamptz;not null"`
	Summary        *string         `gorm:"column:summary;type:text"`
	Content        *string         `gorm:"column:content;type:text"`
	Author         *string         `gorm:"column:author;type:text"`
	PublishedDate  *time.Time      `gorm:"column:published_date;type:timestamptz"`
	Tags           json.RawMessage `gorm:"column:tags;type:jsonb"`
	RelevanceScore *float64        `gorm:"column:relevance_score;type:double precision"`
	MatchedTerms   json.RawMessage `gorm:"column:matched_terms;type:jsonb"`
	Status         string          `gorm:"column:status;type:text;not null"`
	ErrorMessage   *string         `gorm:"column:error_message;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ArticleRow) TableName() string { return "adwatch.articles" }

// RunRow maps adwatch.runs. The full summary is kept as jsonb so the
// document written to Postgres matches the one written to runs.json.
type RunRow struct {
	RunID     int64           `gorm:"column:run_id;primaryKey;autoIncrement"`
	StartedAt time.Time       `gorm:"column:started_at;type:timestamptz;not null"`
	Summary   json.RawMessage `gorm:"column:summary;type:jsonb;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (RunRow) TableName() string { return "adwatch.runs" }

func autoMigrateModels() []any {
	return []any{
		&SeenURL{},
		&ArticleRow{},
		&RunRow{},
	}
}
