package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"skylight.fyi/adwatch/internal/scoring"
)

// SearchQuery configures one search operation.
type SearchQuery struct {
	Keywords       []string `yaml:"keywords"`
	MaxResults     int      `yaml:"max_results"`
	Sources        []string `yaml:"sources"`
	ExcludeDomains []string `yaml:"exclude_domains"`
	Language       string   `yaml:"language"`
}

// QueryFile is the YAML document describing what to search for and,
// optionally, a term-table override for the scorer.
type QueryFile struct {
	SearchQueries []SearchQuery  `yaml:"search_queries"`
	TargetSites   []string       `yaml:"target_sites"`
	Feeds         []string       `yaml:"feeds"`
	Terms         []scoring.Term `yaml:"terms"`
}

// TermTable returns the override table from the file, or the built-in
// taxonomy when none is declared.
func (q *QueryFile) TermTable() scoring.Table {
	if q == nil || len(q.Terms) == 0 {
		return scoring.DefaultTable()
	}
	return scoring.Table(q.Terms)
}

// LoadQueryFile reads and checks the query YAML file.
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries file %s: %w", path, err)
	}

	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse queries file %s: %w", path, err)
	}

	for i := range qf.SearchQueries {
		q := &qf.SearchQueries[i]
		if len(q.Keywords) == 0 {
			return nil, fmt.Errorf("queries file %s: search_queries[%d] has no keywords", path, i)
		}
		if q.MaxResults <= 0 {
			q.MaxResults = 50
		}
		if len(q.Sources) == 0 {
			q.Sources = []string{"google", "bing"}
		}
		if q.Language == "" {
			q.Language = "en"
		}
	}
	for i, t := range qf.Terms {
		if t.Phrase == "" || t.Weight <= 0 {
			return nil, fmt.Errorf("queries file %s: terms[%d] needs a phrase and a positive weight", path, i)
		}
	}

	return &qf, nil
}

// DefaultQueryFile is used when no queries file exists: a single query over
// the core taxonomy topics, the way an unconfigured install should behave.
func DefaultQueryFile(keywords []string) *QueryFile {
	if len(keywords) == 0 {
		keywords = []string{"ad fraud", "malvertising"}
	}
	return &QueryFile{
		SearchQueries: []SearchQuery{
			{
				Keywords:   keywords,
				MaxResults: 20,
				Sources:    []string{"google", "duckduckgo"},
				Language:   "en",
			},
		},
	}
}
