// ABOUTME: Directory watcher that imports Garmin exports as they land on disk.
// ABOUTME: Debounces fsnotify create/write events so partially copied files are skipped.
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

	"github.com/djtroymx1/PepMetrics-sub000/internal/importer"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is imported.
const DefaultDebounce = 2 * time.Second

// Extensions lists the file types the watcher imports.
var Extensions = []string{".zip", ".csv", ".fit", ".json"}

// Importer imports one file from disk.
type Importer interface {
	ImportPath(ctx context.Context, path string) (*importer.Result, error)
}

// Handler is told about every import attempt.
type Handler func(path string, res *importer.Result, err error)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Existing imports files already in the directory before watching.
	Existing bool
	Logger   *zap.Logger
	OnImport Handler
}

// Watcher imports supported files created in a directory.
type Watcher struct {
	dir  string
	imp  Importer
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for dir.
func New(dir string, imp Importer, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		dir:     dir,
		imp:     imp,
		opts:    opts,
		log:     log,
		pending: make(map[string]time.Time),
	}
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: not a directory", w.dir)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching directory", zap.String("dir", w.dir), zap.Duration("debounce", w.opts.Debounce))

	if w.opts.Existing {
		if err := w.importExisting(ctx); err != nil {
			return err
		}
	}

	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !Supported(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.log.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush imports every pending file that has been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	w.mu.Lock()
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.importFile(ctx, path)
	}
}

func (w *Watcher) importExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		w.importFile(ctx, filepath.Join(w.dir, e.Name()))
	}
	return nil
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	res, err := w.imp.ImportPath(ctx, path)
	switch {
	case err != nil:
		w.log.Warn("import failed", zap.String("path", path), zap.Error(err))
	case !res.Success:
		w.log.Info("nothing imported", zap.String("path", path), zap.String("reason", res.Message))
	}
	if w.opts.OnImport != nil {
		w.opts.OnImport(path, res, err)
	}
}
