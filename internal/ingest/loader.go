package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/metrics"
	"go.uber.org/zap"
)

// Report summarizes one ingestion run.
type Report struct {
	Source     string
	Loaded     int // records read from the source
	Indexed    int
	Failed     int
	Duplicates int
	Rejected   int
	Skipped    bool // index already populated; nothing was loaded
	Duration   time.Duration
	Errors     []error
}

// Loader bulk-loads records into one index.
type Loader struct {
	index     keyword.Index
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a logger for ingestion progress.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// WithMetrics records ingestion outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ld *Loader) { ld.metrics = m }
}

// WithBatchSize overrides keyword.DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(ld *Loader) { ld.batchSize = n }
}

// NewLoader creates a loader writing into index.
func NewLoader(index keyword.Index, opts ...Option) *Loader {
	l := &Loader{
		index:     index,
		batchSize: keyword.DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// populated reports whether the index already holds documents.
func (l *Loader) populated() (bool, error) {
	n, err := l.index.DocCount()
	if err != nil {
		return false, fmt.Errorf("count documents: %w", err)
	}
	return n > 0, nil
}

// EnsureDiseaseIndex loads the dataset at path unless the index is already populated.
func (l *Loader) EnsureDiseaseIndex(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	report := &Report{Source: path}
	ok, err := l.populated()
	if err != nil {
		return nil, err
	}
	if ok {
		report.Skipped = true
		l.logger.Info("disease index already populated, skipping load", zap.String("source", path))
		return report, nil
	}

	records, err := LoadDiseaseDataset(path)
	if err != nil {
		return nil, err
	}
	report.Loaded = len(records)
	docs := make([]keyword.Document, len(records))
	for i, rec := range records {
		docs[i] = keyword.Document{ID: "disease-" + strconv.Itoa(i), Data: rec}
	}
	if err := l.bulk(ctx, docs, report); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	l.log(report)
	return report, nil
}

// EnsureLabelIndex loads every label file in dir unless the index is already populated.
// All files share one deduplication run. Unreadable files are recorded in the report and skipped.
func (l *Loader) EnsureLabelIndex(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	report := &Report{Source: dir}
	ok, err := l.populated()
	if err != nil {
		return nil, err
	}
	if ok {
		report.Skipped = true
		l.logger.Info("label index already populated, skipping load", zap.String("source", dir))
		return report, nil
	}

	files, err := ListLabelFiles(dir)
	if err != nil {
		return nil, err
	}
	dedup := NewDeduper()
	var docs []keyword.Document
	for _, path := range files {
		records, err := LoadLabelFile(path)
		if err != nil {
			l.logger.Warn("skipping label file", zap.String("path", path), zap.Error(err))
			report.Errors = append(report.Errors, err)
			continue
		}
		docs = append(docs, l.labelDocuments(records, dedup, report)...)
	}
	if err := l.bulk(ctx, docs, report); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	l.log(report)
	return report, nil
}

// IngestLabelFile appends one label file to the index as its own deduplication run,
// regardless of whether the index is already populated.
func (l *Loader) IngestLabelFile(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	report := &Report{Source: path}
	records, err := LoadLabelFile(path)
	if err != nil {
		return nil, err
	}
	docs := l.labelDocuments(records, NewDeduper(), report)
	if err := l.bulk(ctx, docs, report); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	l.log(report)
	return report, nil
}

func (l *Loader) labelDocuments(records []LabelRecord, dedup *Deduper, report *Report) []keyword.Document {
	report.Loaded += len(records)
	docs := make([]keyword.Document, 0, len(records))
	for _, rec := range records {
		switch dedup.Check(rec.OpenFDA("brand_name"), rec.OpenFDA("generic_name")) {
		case Duplicate:
			report.Duplicates++
			continue
		case Rejected:
			report.Rejected++
			continue
		}
		doc, err := BuildLabelDocument(rec)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, err)
			continue
		}
		id := doc.SetID
		if id == "" {
			id = uuid.New().String()
		}
		docs = append(docs, keyword.Document{ID: id, Data: doc})
	}
	return docs
}

func (l *Loader) bulk(ctx context.Context, docs []keyword.Document, report *Report) error {
	res, err := l.index.BulkIndex(ctx, docs, l.batchSize)
	if res != nil {
		report.Indexed += res.Indexed
		report.Failed += res.Failed
		report.Errors = append(report.Errors, res.Errors...)
	}
	l.metrics.Ingest("indexed", report.Indexed)
	l.metrics.Ingest("failed", report.Failed)
	l.metrics.Ingest("duplicate", report.Duplicates)
	l.metrics.Ingest("rejected", report.Rejected)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	return nil
}

func (l *Loader) log(r *Report) {
	l.logger.Info("indexing complete",
		zap.String("source", r.Source),
		zap.Int("loaded", r.Loaded),
		zap.Int("indexed", r.Indexed),
		zap.Int("failed", r.Failed),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("rejected", r.Rejected),
		zap.Duration("duration", r.Duration),
	)
	for i, err := range r.Errors {
		if i == 5 {
			break
		}
		l.logger.Warn("ingestion error", zap.Error(err))
	}
}
