package main

import (
	"context"
	"fmt"
	"io"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/hyperjump/medtriage/internal/config"
	"github.com/hyperjump/medtriage/internal/ingest"
	"github.com/hyperjump/medtriage/internal/keyword"
	"github.com/hyperjump/medtriage/internal/storage"
	"go.uber.org/zap"
)

type ingestOptions struct {
	Diseases bool
	Labels   bool
	File     string // single label file appended to the label index
}

// buildIndices builds the requested indices offline and prints a summary per source to w.
func buildIndices(ctx context.Context, cfg *config.Config, opts ingestOptions, logger *zap.Logger, w io.Writer) error {
	if opts.Diseases {
		err := withIndex(cfg.Storage.MedicalIndex, keyword.DiseaseMapping(), logger, func(l *ingest.Loader) (*ingest.Report, error) {
			return l.EnsureDiseaseIndex(ctx, cfg.Storage.DiseaseDataset)
		}, w)
		if err != nil {
			return fmt.Errorf("disease index: %w", err)
		}
	}
	if opts.Labels {
		err := withIndex(cfg.Storage.OpenFDAIndex, keyword.MedicineMapping(), logger, func(l *ingest.Loader) (*ingest.Report, error) {
			return l.EnsureLabelIndex(ctx, cfg.Storage.LabelDir)
		}, w)
		if err != nil {
			return fmt.Errorf("label index: %w", err)
		}
	}
	if opts.File != "" {
		err := withIndex(cfg.Storage.OpenFDAIndex, keyword.MedicineMapping(), logger, func(l *ingest.Loader) (*ingest.Report, error) {
			return l.IngestLabelFile(ctx, opts.File)
		}, w)
		if err != nil {
			return fmt.Errorf("label file: %w", err)
		}
	}

	diskBytes, err := storage.DiskUsageBytes(cfg.Storage.MedicalIndex, cfg.Storage.OpenFDAIndex)
	if err == nil {
		fmt.Fprintf(w, "Index disk usage: %d bytes\n", diskBytes)
	}
	return nil
}

// withIndex opens (or creates) the index at path, runs one load against it and closes it.
func withIndex(path string, im mapping.IndexMapping, logger *zap.Logger, run func(*ingest.Loader) (*ingest.Report, error), w io.Writer) error {
	index, err := keyword.NewBleveIndex(path, im)
	if err != nil {
		return err
	}
	defer index.Close()

	report, err := run(ingest.NewLoader(index, ingest.WithLogger(logger)))
	if report != nil {
		printReport(w, report)
	}
	return err
}

func printReport(w io.Writer, r *ingest.Report) {
	if r.Skipped {
		fmt.Fprintf(w, "%s: index already populated, skipped\n", r.Source)
		return
	}
	fmt.Fprintf(w, "%s: loaded %d, indexed %d, failed %d, duplicates %d, rejected %d (%s)\n",
		r.Source, r.Loaded, r.Indexed, r.Failed, r.Duplicates, r.Rejected, r.Duration)
	for _, err := range r.Errors {
		fmt.Fprintf(w, "  error: %v\n", err)
	}
}
