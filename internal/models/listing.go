package models

import (
	"fmt"
	"strings"
)

// keySeparator joins key column values; it cannot appear in scraped text
const keySeparator = "\x1f"

// Record is one scraped listing, column name to value
type Record map[string]string

// Schema describes the CSV layout of a site's records
type Schema struct {
	Columns    []string
	KeyColumns []string
}

// Validate checks that the schema has columns and that every key column is one of them
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	if len(s.KeyColumns) == 0 {
		return fmt.Errorf("schema has no key columns")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if seen[c] {
			return fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = true
	}
	for _, k := range s.KeyColumns {
		if !seen[k] {
			return fmt.Errorf("key column %q is not a schema column", k)
		}
	}
	return nil
}

// Key returns the deduplication key of r
func (s Schema) Key(r Record) string {
	parts := make([]string, len(s.KeyColumns))
	for i, c := range s.KeyColumns {
		parts[i] = strings.TrimSpace(r[c])
	}
	return strings.Join(parts, keySeparator)
}

// Row returns r's values in column order
func (s Schema) Row(r Record) []string {
	row := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		row[i] = r[c]
	}
	return row
}

// FromRow maps a CSV row onto the schema using the file's own header.
// Columns missing from the file come back empty.
func (s Schema) FromRow(header, row []string) Record {
	r := make(Record, len(s.Columns))
	for _, c := range s.Columns {
		r[c] = ""
	}
	for i, h := range header {
		if i < len(row) {
			r[h] = row[i]
		}
	}
	return r
}
