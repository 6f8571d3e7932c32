package document

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const eventChannelBuffer = 1000

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	// Root is the directory tree to watch for .pc sources.
	Root string

	// DebounceDelay is the flush interval: changes are collected per file
	// and emitted on each tick, so several changes to one file within an
	// interval become a single event.
	DebounceDelay time.Duration

	Logger *slog.Logger

	// ExcludeDirs are directory names to skip, e.g. "node_modules".
	ExcludeDirs []string
}

// WatchOperation indicates the type of file-system change observed.
type WatchOperation string

const (
	OpCreate WatchOperation = "create"
	OpModify WatchOperation = "modify"
	OpDelete WatchOperation = "delete"
)

// WatchEvent is one debounced change to a .pc source file.
type WatchEvent struct {
	Path      string
	Operation WatchOperation
}

// Watcher watches a source tree for .pc file changes and emits debounced
// WatchEvents, triggering the reparse -> reevaluate -> diff pipeline rerun
// for the changed file.
type Watcher struct {
	config   WatcherConfig
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan WatchEvent

	droppedEvents atomic.Int64
}

// NewWatcher creates a Watcher over config. Call Start to begin watching.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	excludes := map[string]bool{"node_modules": true, "vendor": true}
	for _, d := range config.ExcludeDirs {
		excludes[d] = true
	}

	return &Watcher{
		config:   config,
		fsw:      fsw,
		logger:   logger,
		excludes: excludes,
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan WatchEvent, eventChannelBuffer),
	}, nil
}

// Events returns the channel of debounced watch events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching config.Root and its subdirectories.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}
	go w.processEvents(ctx)
	w.logger.Info("source watcher started", "root", w.config.Root, "debounce", w.config.DebounceDelay)
	return nil
}

// Stop closes the event channel and the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.events)
	return w.fsw.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if w.excludes[base] || strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name
	if filepath.Ext(path) != ".pc" {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.handleNewDirectory(path)
			}
		}
		return
	}

	relPath, _ := filepath.Rel(w.config.Root, path)
	for dir := range w.excludes {
		if strings.Contains(relPath, dir+string(filepath.Separator)) {
			return
		}
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()
}

func (w *Watcher) handleNewDirectory(path string) {
	base := filepath.Base(path)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range pending {
		evt := WatchEvent{Path: path}
		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			evt.Operation = OpDelete
		case op.Has(fsnotify.Create):
			evt.Operation = OpCreate
		default:
			evt.Operation = OpModify
		}

		select {
		case w.events <- evt:
		default:
			w.droppedEvents.Add(1)
			w.logger.Warn("watch event dropped, channel full", "path", path)
		}
	}
}
