// Package watcher ingests drug-label files dropped into the label directory while an agent runs.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/medtriage/internal/ingest"
	"go.uber.org/zap"
)

const defaultDebounce = 500 * time.Millisecond

// Ingester ingests one label file as its own run.
type Ingester interface {
	IngestLabelFile(ctx context.Context, path string) (*ingest.Report, error)
}

// Watcher watches one directory and ingests .json files after they stop changing.
// Removed files are ignored; the index has no delete path.
type Watcher struct {
	dir         string
	ingester    Ingester
	debounce    time.Duration
	logger      *zap.Logger
	onIngest    func(path string, report *ingest.Report, err error)
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	ctx         context.Context
	done        chan struct{}
	stopOnce    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIngestHook registers a callback run after every ingestion attempt.
func WithIngestHook(fn func(path string, report *ingest.Report, err error)) Option {
	return func(w *Watcher) { w.onIngest = fn }
}

// New creates a watcher for dir.
func New(dir string, ingester Ingester, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         filepath.Clean(dir),
		ingester:    ingester,
		debounce:    defaultDebounce,
		logger:      zap.NewNop(),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. The directory is created if missing. It runs until ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return err
	}
	w.mu.Lock()
	w.watcher = fsw
	w.ctx = ctx
	w.mu.Unlock()
	w.logger.Info("watching label directory", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	if filepath.Dir(filepath.Clean(path)) != w.dir || !ingest.IsLabelFile(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return
		}
		w.debounceIngest(path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	}
}

func (w *Watcher) debounceIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		ctx := w.ctx
		w.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	report, err := w.ingester.IngestLabelFile(ctx, path)
	if err != nil {
		w.logger.Error("label file ingestion failed", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("label file ingested",
			zap.String("path", path),
			zap.Int("indexed", report.Indexed),
			zap.Int("duplicates", report.Duplicates),
		)
	}
	if w.onIngest != nil {
		w.onIngest(path, report, err)
	}
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// Pending returns the number of files waiting for their debounce timer.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.debounceMap)
}

// Stop stops the watcher and drops pending ingestions. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	fsw := w.watcher
	w.watcher = nil
	w.mu.Unlock()
	if fsw != nil {
		_ = fsw.Close()
	}
	w.stopOnce.Do(func() { close(w.done) })
}
