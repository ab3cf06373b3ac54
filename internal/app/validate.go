package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	articleschema "skylight.fyi/adwatch/schema"
)

// runValidate checks article record JSON files against the export schema.
// Each file may hold a single record or an array of records.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: adwatch validate <file.json> [file.json ...]")
		return 2
	}

	failures := 0
	for _, path := range files {
		valid, total, err := validateFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failures++
			continue
		}
		if valid != total {
			fmt.Printf("%s: %d/%d records valid\n", path, valid, total)
			failures++
			continue
		}
		fmt.Printf("%s: %d records valid\n", path, total)
	}

	if failures > 0 {
		return 1
	}
	return 0
}

func validateFile(path string) (valid, total int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		// Not an array, treat the whole file as one record.
		records = []json.RawMessage{data}
	}

	for i, raw := range records {
		total++
		if _, err := articleschema.ValidateArticleRecord(raw); err != nil {
			fmt.Fprintf(os.Stderr, "%s: record %d: %v\n", path, i, err)
			continue
		}
		valid++
	}
	return valid, total, nil
}
