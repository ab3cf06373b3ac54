package articleschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"skylight.fyi/adwatch/internal/storage"
)

//go:embed article_record.schema.json
var articleRecordSchemaJSON string

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

var validStatuses = map[string]struct{}{
	"new":       {},
	"parsed":    {},
	"failed":    {},
	"duplicate": {},
}

// ValidateArticleRecord checks that a persisted article document matches
// the export contract and returns it decoded.
func ValidateArticleRecord(payload json.RawMessage) (*storage.Record, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode record JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize record JSON: %w", err)
	}

	var record storage.Record
	if err := json.Unmarshal(normalized, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	if err := validateSemantics(&record); err != nil {
		return nil, err
	}

	return &record, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("article_record.schema.json", strings.NewReader(articleRecordSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("article_record.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("record is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("record contains trailing content")
	}

	return value, nil
}

func validateSemantics(record *storage.Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}

	if err := validateURI("url", record.URL); err != nil {
		return err
	}
	if strings.TrimSpace(record.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(record.Source) == "" {
		return fmt.Errorf("source must not be empty")
	}
	if record.DiscoveredAt.IsZero() {
		return fmt.Errorf("discovered_at must be set")
	}

	if _, ok := validStatuses[record.Status]; !ok {
		return fmt.Errorf("status %q is not a known status token", record.Status)
	}

	if record.RelevanceScore != nil {
		score := *record.RelevanceScore
		if score < 0 || score > 1 {
			return fmt.Errorf("relevance_score %v outside [0, 1]", score)
		}
	}
	if len(record.MatchedTerms) > 0 && record.RelevanceScore == nil {
		return fmt.Errorf("matched_terms present without relevance_score")
	}
	for i, term := range record.MatchedTerms {
		if strings.TrimSpace(term) == "" {
			return fmt.Errorf("matched_terms[%d] must not be empty", i)
		}
	}
	for i, tag := range record.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags[%d] must not be empty", i)
		}
	}

	if record.PublishedDate != nil && record.PublishedDate.After(time.Now().Add(24*time.Hour)) {
		return fmt.Errorf("published_date is in the future")
	}

	return nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}
