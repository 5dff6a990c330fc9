// Package keyword provides the lexical search backend for the disease and drug-label corpora.
package keyword

import (
	"context"
	"fmt"
	"strings"
)

// DefaultBatchSize is the number of documents sent to the index per batch during bulk loads.
const DefaultBatchSize = 1000

// Document is one record to be indexed. Data is any value Bleve can map (struct or map).
type Document struct {
	ID   string
	Data interface{}
}

// BulkResult reports the outcome of a bulk insert. Failures are counted, not retried.
type BulkResult struct {
	Indexed int
	Failed  int
	Errors  []error
}

// Searcher runs a single match query against one field.
type Searcher interface {
	// Search returns at most limit hits for text matched against field, in backend relevance order.
	// fields lists the stored fields to load into each hit.
	Search(ctx context.Context, field, text string, limit int, fields ...string) ([]*Hit, error)
}

// Index is a searchable, append-only document index.
type Index interface {
	Searcher
	BulkIndex(ctx context.Context, docs []Document, batchSize int) (*BulkResult, error)
	// DocCount returns the total number of documents in the index.
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single search hit with its stored fields.
type Hit struct {
	ID     string
	Score  float64
	Fields map[string]interface{}
}

// Strings returns the stored values of field. Single values are returned as a one-element slice;
// empty strings are kept so callers can apply their own defaults.
func (h *Hit) Strings(field string) []string {
	if h == nil || h.Fields == nil {
		return nil
	}
	switch v := h.Fields[field].(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// String returns the stored values of field joined by ", ", or "" when absent.
func (h *Hit) String(field string) string {
	return strings.Join(h.Strings(field), ", ")
}
