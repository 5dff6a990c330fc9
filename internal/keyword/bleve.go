package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
	path  string
}

// Exists reports whether an index directory is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NewBleveIndex creates or opens a Bleve index at path.
// If the path already exists, the existing index is opened and its stored mapping is used;
// im only applies when the index is created. Remove the directory to pick up mapping changes.
func NewBleveIndex(path string, im mapping.IndexMapping) (*BleveIndex, error) {
	if Exists(path) {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", err)
		}
		return &BleveIndex{index: index, path: path}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, path: path}, nil
}

// NewMemBleveIndex creates an in-memory index. Used by tests and dry runs.
func NewMemBleveIndex(im mapping.IndexMapping) (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Path returns the on-disk location of the index ("" for in-memory indices).
func (b *BleveIndex) Path() string {
	return b.path
}

// BulkIndex inserts docs in batches of batchSize. A document rejected while batching, or every
// document of a batch the index refuses, is counted as failed; loading continues with the next
// batch and already-inserted documents are kept.
func (b *BleveIndex) BulkIndex(ctx context.Context, docs []Document, batchSize int) (*BulkResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	res := &BulkResult{}
	for start := 0; start < len(docs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+batchSize, len(docs))
		batch := b.index.NewBatch()
		queued := 0
		for _, doc := range docs[start:end] {
			if err := batch.Index(doc.ID, doc.Data); err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Errorf("document %s: %w", doc.ID, err))
				continue
			}
			queued++
		}
		if queued == 0 {
			continue
		}
		if err := b.index.Batch(batch); err != nil {
			res.Failed += queued
			res.Errors = append(res.Errors, fmt.Errorf("batch %d-%d: %w", start, end, err))
			continue
		}
		res.Indexed += queued
	}
	return res, nil
}

// Search runs one MatchQuery on field and returns up to limit hits with the requested stored fields.
func (b *BleveIndex) Search(ctx context.Context, field, text string, limit int, fields ...string) ([]*Hit, error) {
	q := bleve.NewMatchQuery(text)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = fields
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Hit{ID: hit.ID, Score: hit.Score, Fields: hit.Fields}
	}
	return out, nil
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
