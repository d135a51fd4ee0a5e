package store

import "sjsage522/listingworker/internal/models"

// Dedup keeps the first record for every key, preserving order
func Dedup(records []models.Record, schema models.Schema) []models.Record {
	f := NewFilter(schema, nil)
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if f.Add(r) {
			out = append(out, r)
		}
	}
	return out
}

// Merge appends fresh to existing, drops later duplicates and keeps at most limit
// records. A limit of zero or less keeps everything.
func Merge(existing, fresh []models.Record, schema models.Schema, limit int) []models.Record {
	combined := make([]models.Record, 0, len(existing)+len(fresh))
	combined = append(combined, existing...)
	combined = append(combined, fresh...)

	merged := Dedup(combined, schema)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// Filter remembers keys across pages of a run
type Filter struct {
	schema models.Schema
	seen   map[string]struct{}
}

// NewFilter creates a filter that already knows the keys of existing
func NewFilter(schema models.Schema, existing []models.Record) *Filter {
	f := &Filter{schema: schema, seen: make(map[string]struct{}, len(existing))}
	for _, r := range existing {
		f.seen[schema.Key(r)] = struct{}{}
	}
	return f
}

// Add records r's key and reports whether it was new
func (f *Filter) Add(r models.Record) bool {
	key := f.schema.Key(r)
	if _, ok := f.seen[key]; ok {
		return false
	}
	f.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys
func (f *Filter) Len() int {
	return len(f.seen)
}
