// Package watcher turns a drop folder into a summarizing inbox: supported documents written into
// the folder are processed one at a time and their table documents written next to them.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/tenderlens/internal/extract"
	"github.com/hyperjump/tenderlens/internal/pipeline"
	"github.com/hyperjump/tenderlens/pkg/utils"
	"go.uber.org/zap"
)

const (
	defaultDebounce = 400 * time.Millisecond
	queueSize       = 64
	// outputSuffix marks documents the watcher wrote itself; they are never picked up again.
	outputSuffix = "_summary.docx"
)

// FileProcessor runs the attachment phase for a local file.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string, data []byte, sink pipeline.Sink) (*pipeline.Result, error)
}

// Watcher watches one directory and feeds new or rewritten files through a FileProcessor on a
// single goroutine.
type Watcher struct {
	dir         string
	outDir      string
	extensions  []string
	proc        FileProcessor
	sink        pipeline.Sink
	onProcessed func(path string, res *pipeline.Result, err error)
	debounce    time.Duration
	logger      *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	queue       chan string
	done        chan struct{}
	started     bool
	stopOnce    sync.Once
	worker      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (file events, processing results).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithExtensions restricts which files are processed. Defaults to extract.SupportedExtensions().
func WithExtensions(exts []string) Option {
	return func(w *Watcher) { w.extensions = exts }
}

// WithSink receives the pipeline events of every run.
func WithSink(s pipeline.Sink) Option {
	return func(w *Watcher) { w.sink = s }
}

// OnProcessed is called after each file, from the processing goroutine.
func OnProcessed(fn func(path string, res *pipeline.Result, err error)) Option {
	return func(w *Watcher) { w.onProcessed = fn }
}

// NewWatcher creates a watcher for dir. Table documents are written to outDir, or to dir when
// outDir is empty.
func NewWatcher(dir, outDir string, proc FileProcessor, opts ...Option) *Watcher {
	if outDir == "" {
		outDir = dir
	}
	w := &Watcher{
		dir:         filepath.Clean(dir),
		outDir:      filepath.Clean(outDir),
		extensions:  extract.SupportedExtensions(),
		proc:        proc,
		sink:        pipeline.Discard,
		debounce:    defaultDebounce,
		logger:      zap.NewNop(),
		debounceMap: make(map[string]*time.Timer),
		queue:       make(chan string, queueSize),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.LoggerOrNop(w.logger)
	return w
}

// Start creates the directories if needed and starts watching. It runs until ctx is cancelled
// or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	for _, d := range []string{w.dir, w.outDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.watcher = fsw
	w.started = true
	w.logger.Debug("watcher starting",
		zap.String("dir", w.dir),
		zap.String("output_dir", w.outDir),
		zap.Strings("extensions", w.extensions),
	)

	w.worker.Add(1)
	go w.work(ctx)
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
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if filepath.Dir(path) != w.dir {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() && w.wants(path) {
			w.debounceEnqueue(path)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancelDebounce(path)
	}
}

// wants reports whether path is a file the watcher should process.
func (w *Watcher) wants(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(strings.ToLower(name), outputSuffix) {
		return false
	}
	return matchExtension(path, w.extensions)
}

func matchExtension(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if len(extensions) == 0 {
		return true
	}
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceEnqueue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.enqueue(path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

func (w *Watcher) enqueue(path string) {
	select {
	case w.queue <- path:
		w.logger.Debug("watcher queued file", zap.String("path", path))
	case <-w.done:
	}
}

// SyncExistingFiles queues every matching file already present in the directory, in name order.
// Call it after Start.
func (w *Watcher) SyncExistingFiles() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if p := filepath.Join(w.dir, e.Name()); w.wants(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	w.logger.Debug("watcher syncing existing files", zap.Int("files", len(paths)))
	for _, p := range paths {
		w.enqueue(p)
	}
	return nil
}

func (w *Watcher) work(ctx context.Context) {
	defer w.worker.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.queue:
			res, err := w.process(ctx, path)
			if w.onProcessed != nil {
				w.onProcessed(path, res, err)
			}
		}
	}
}

// process runs one file through the pipeline and writes its table document, if any.
func (w *Watcher) process(ctx context.Context, path string) (*pipeline.Result, error) {
	logger := w.logger.With(zap.String("path", path))
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watcher could not read file", zap.Error(err))
		return nil, err
	}
	res, err := w.proc.ProcessFile(ctx, path, data, w.sink)
	if err != nil {
		logger.Warn("watcher processing failed", zap.Error(err))
		return res, err
	}
	if !res.HasDocument() {
		logger.Info("no table document produced",
			zap.Bool("unsupported", res.Unsupported),
			zap.NamedError("attachment_error", res.AttachmentErr),
		)
		return res, nil
	}
	out := filepath.Join(w.outDir, res.DocumentName)
	if err := os.WriteFile(out, res.Document, 0644); err != nil {
		logger.Warn("watcher could not write document", zap.String("output", out), zap.Error(err))
		return res, fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("table document written", zap.String("output", out), zap.String("report_id", res.ReportID))
	return res, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Stop stops watching and waits for the file being processed, if any, to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
	w.worker.Wait()
}
