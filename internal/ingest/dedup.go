package ingest

import "strings"

// Verdict is the outcome of a deduplication check.
type Verdict int

const (
	// Accepted records are new; their names now block later records.
	Accepted Verdict = iota
	// Duplicate records share a brand or generic name with an accepted record.
	Duplicate
	// Rejected records carry neither a brand nor a generic name.
	Rejected
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Deduper tracks the normalized brand and generic names accepted during one ingestion run.
// First seen wins. Not safe for concurrent use; create one per run.
type Deduper struct {
	brands   map[string]struct{}
	generics map[string]struct{}
}

// NewDeduper returns an empty Deduper.
func NewDeduper() *Deduper {
	return &Deduper{
		brands:   make(map[string]struct{}),
		generics: make(map[string]struct{}),
	}
}

// Check evaluates a record's names and, when accepted, adds them to the seen sets.
func (d *Deduper) Check(brandNames, genericNames []string) Verdict {
	brands := normalizeNames(brandNames)
	generics := normalizeNames(genericNames)
	if len(brands) == 0 && len(generics) == 0 {
		return Rejected
	}
	if intersects(brands, d.brands) || intersects(generics, d.generics) {
		return Duplicate
	}
	for _, n := range brands {
		d.brands[n] = struct{}{}
	}
	for _, n := range generics {
		d.generics[n] = struct{}{}
	}
	return Accepted
}

// Len returns the number of distinct brand and generic names seen.
func (d *Deduper) Len() (brands, generics int) {
	return len(d.brands), len(d.generics)
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func intersects(names []string, seen map[string]struct{}) bool {
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return true
		}
	}
	return false
}
