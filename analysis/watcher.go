package analysis

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher drives incremental re-analysis from file system change events,
// debounced the way ternarybob-iter's index/watcher.go debounces reindex
// triggers: rapid-fire edits to the same file collapse into a single
// ReanalyzeDocument call after DebouncePeriod of quiet.
type Watcher struct {
	analyzer *Analyzer
	fsw      *fsnotify.Watcher
	uriOf    func(path string) (string, bool)

	DebouncePeriod time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stopCh  chan struct{}
}

// NewWatcher creates a Watcher driving a re-analysis of analyzer whenever
// a watched path changes. uriOf maps a file system path from fsnotify's
// event to the document URI the analyzer knows it by (false if the path
// is not a tracked document, e.g. a swap file).
func NewWatcher(a *Analyzer, uriOf func(path string) (string, bool)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("analysis: create watcher: %w", err)
	}
	return &Watcher{
		analyzer:       a,
		fsw:            fsw,
		uriOf:          uriOf,
		DebouncePeriod: 200 * time.Millisecond,
		pending:        map[string]time.Time{},
		stopCh:         make(chan struct{}),
	}, nil
}

// Watch adds dir (and, per fsnotify's semantics, only that directory
// level, not subdirectories) to the watch set.
func (w *Watcher) Watch(dir string) error {
	return w.fsw.Add(dir)
}

// Start begins processing fsnotify events in the background, debouncing
// writes and calling analyzer.ReanalyzeDocument once per settled edit.
func (w *Watcher) Start() {
	go w.processEvents()
	go w.processDebounced()
}

// Stop releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	return w.fsw.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".wdl") {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			uri, ok := w.uriOf(ev.Name)
			if !ok {
				continue
			}
			w.mu.Lock()
			w.pending[uri] = time.Now()
			w.mu.Unlock()
		case <-w.fsw.Errors:
			continue
		}
	}
}

func (w *Watcher) processDebounced() {
	ticker := time.NewTicker(w.DebouncePeriod / 2)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) flushSettled() {
	now := time.Now()
	w.mu.Lock()
	var ready []string
	for uri, t := range w.pending {
		if now.Sub(t) >= w.DebouncePeriod {
			ready = append(ready, uri)
			delete(w.pending, uri)
		}
	}
	w.mu.Unlock()

	for _, uri := range ready {
		_ = w.analyzer.ReanalyzeDocument(uri)
	}
}
