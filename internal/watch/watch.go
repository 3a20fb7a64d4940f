// Package watch re-runs the repair pass whenever a target file changes on
// disk. Events are debounced so editors that save in bursts trigger one
// pass, not one per write.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mojifix/internal/fixer"
)

// Stats tracks watcher activity for debugging and tests.
type Stats struct {
	FilesCreated    int
	FilesModified   int
	FilesRemoved    int
	PassesTriggered int
	Errors          int
	LastEventTime   time.Time
	LastEventPath   string
	LastEventType   string
}

// Watcher monitors the target files and re-runs the repair pass after
// changes settle.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	runner      *fixer.Runner
	files       []string
	targets     map[string]string // resolved path -> name as listed
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	logger      *zap.Logger

	stats Stats
}

// New creates a Watcher over the given target list. Relative names resolve
// against workspace. The runner is invoked with the full list on every
// triggered pass.
func New(workspace string, files []string, runner *fixer.Runner, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	targets := make(map[string]string, len(files))
	for _, name := range files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspace, name)
		}
		targets[filepath.Clean(path)] = name
	}

	return &Watcher{
		watcher:     fsw,
		runner:      runner,
		files:       append([]string(nil), files...),
		targets:     targets,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		logger:      logger,
	}, nil
}

// Start begins watching the directories holding the targets. Non-blocking;
// the event loop runs in a goroutine until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	// Watch parent directories rather than the files themselves, so
	// rename-and-replace saves keep working.
	for _, dir := range w.watchDirs() {
		if err := w.watcher.Add(dir); err != nil {
			// Directory may not exist yet; the pass will report the
			// targets as skipped until it does.
			w.logger.Warn("Watch failed for directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.logger.Info("Watching directory", zap.String("dir", dir))
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("Error closing watcher", zap.Error(err))
	}
	w.logger.Info("Watcher stopped")
}

// TriggerPass runs a full repair pass over the target list immediately.
// Used for the initial pass on startup.
func (w *Watcher) TriggerPass() fixer.Report {
	w.mu.Lock()
	w.stats.PassesTriggered++
	w.mu.Unlock()
	return w.runner.Run(w.files)
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Watcher context cancelled")
			return

		case <-w.stopCh:
			w.logger.Debug("Watcher stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents()
		}
	}
}

// handleEvent records a single filesystem event for one of the targets.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, ok := w.targets[filepath.Clean(event.Name)]
	if !ok {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "remove"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Ignore chmod, etc.
	}

	w.logger.Debug("Target event", zap.String("file", name), zap.String("type", eventType))

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "remove", "rename":
		w.stats.FilesRemoved++
	}

	// Debounce: record the event for later processing
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents triggers one repair pass once every recorded
// event has settled past the debounce window.
func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	settled := true
	for _, eventTime := range w.debounceMap {
		if now.Sub(eventTime) < w.debounceDur {
			settled = false
			break
		}
	}
	if !settled {
		w.mu.Unlock()
		return
	}

	w.debounceMap = make(map[string]time.Time)
	w.stats.PassesTriggered++
	w.mu.Unlock()

	// The rewrite a pass performs raises its own write event; the next
	// pass then finds nothing to change and the loop settles.
	w.logger.Info("Changes settled, re-running repair pass")
	w.runner.Run(w.files)
}

// watchDirs returns the unique parent directories of all targets.
func (w *Watcher) watchDirs() []string {
	seen := make(map[string]struct{})
	var dirs []string
	for path := range w.targets {
		dir := filepath.Dir(path)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	return dirs
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// ResetStats resets the watcher statistics.
func (w *Watcher) ResetStats() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats = Stats{}
}

// IsWatching returns true if the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
