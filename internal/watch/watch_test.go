package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mojifix/internal/fixer"
)

const (
	watchCorrupted = "area 12 m┬▓ and 3 cm┬▓\n"
	watchRepaired  = "area 12 m² and 3 cm²\n"
)

func newRunner(ws string) *fixer.Runner {
	return fixer.NewRunner(fixer.New(ws, nil), nil, nil)
}

func TestNew_TargetResolution(t *testing.T) {
	w, err := New("/ws", []string{"a.js", "/abs/b.rb"}, newRunner("/ws"), time.Second, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.Equal(t, "a.js", w.targets[filepath.Clean("/ws/a.js")])
	assert.Equal(t, "/abs/b.rb", w.targets[filepath.Clean("/abs/b.rb")])
	assert.ElementsMatch(t, []string{"/ws", "/abs"}, w.watchDirs())
}

func TestHandleEvent_FiltersAndCounts(t *testing.T) {
	w, err := New("/ws", []string{"a.js"}, newRunner("/ws"), time.Hour, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	// Untracked files never reach the debounce map.
	w.handleEvent(fsnotify.Event{Name: "/ws/other.js", Op: fsnotify.Write})
	assert.Empty(t, w.debounceMap)
	assert.Zero(t, w.GetStats().FilesModified)

	// Chmod on a target is ignored.
	w.handleEvent(fsnotify.Event{Name: "/ws/a.js", Op: fsnotify.Chmod})
	assert.Empty(t, w.debounceMap)

	w.handleEvent(fsnotify.Event{Name: "/ws/a.js", Op: fsnotify.Write})
	stats := w.GetStats()
	assert.Equal(t, 1, stats.FilesModified)
	assert.Equal(t, "modify", stats.LastEventType)
	assert.Len(t, w.debounceMap, 1)

	w.handleEvent(fsnotify.Event{Name: "/ws/a.js", Op: fsnotify.Remove})
	assert.Equal(t, 1, w.GetStats().FilesRemoved)
}

func TestProcessDebounced_WaitsForSettle(t *testing.T) {
	w, err := New("/ws", []string{"a.js"}, newRunner("/ws"), time.Hour, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	// Fresh event: not yet settled, nothing fires.
	w.handleEvent(fsnotify.Event{Name: "/ws/a.js", Op: fsnotify.Write})
	w.processDebouncedEvents()
	assert.Zero(t, w.GetStats().PassesTriggered)
	assert.Len(t, w.debounceMap, 1)

	// Backdate the event past the window: one pass fires and the map
	// drains.
	w.mu.Lock()
	w.debounceMap["/ws/a.js"] = time.Now().Add(-2 * time.Hour)
	w.mu.Unlock()
	w.processDebouncedEvents()
	assert.Equal(t, 1, w.GetStats().PassesTriggered)
	assert.Empty(t, w.debounceMap)
}

func TestTriggerPass(t *testing.T) {
	ws := t.TempDir()
	path := filepath.Join(ws, "a.js")
	require.NoError(t, os.WriteFile(path, []byte(watchCorrupted), 0644))

	w, err := New(ws, []string{"a.js"}, newRunner(ws), time.Second, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	report := w.TriggerPass()

	assert.Equal(t, 1, report.Fixed)
	assert.Equal(t, 1, w.GetStats().PassesTriggered)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, watchRepaired, string(data))
}

func TestWatcher_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := t.TempDir()
	w, err := New(ws, []string{"a.js"}, newRunner(ws), 50*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsWatching())
	assert.Contains(t, w.WatchedDirs(), ws)

	// Starting again is a no-op.
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	assert.False(t, w.IsWatching())

	// Stopping again is a no-op.
	w.Stop()
}

func TestWatcher_RepairsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := t.TempDir()
	path := filepath.Join(ws, "a.js")
	require.NoError(t, os.WriteFile(path, []byte("clean for now\n"), 0644))

	w, err := New(ws, []string{"a.js"}, newRunner(ws), 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(watchCorrupted), 0644))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == watchRepaired
	}, 5*time.Second, 25*time.Millisecond, "watcher should repair the file after the write settles")

	// The repair's own write raises one more event, so one follow-up pass
	// runs and finds nothing to change.
	require.Eventually(t, func() bool {
		return w.GetStats().PassesTriggered >= 2
	}, 5*time.Second, 25*time.Millisecond, "follow-up pass after the write-back")

	// That follow-up performs no write, so the loop must go quiet: the
	// pass count holds across several debounce windows.
	time.Sleep(300 * time.Millisecond)
	settled := w.GetStats().PassesTriggered
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, settled, w.GetStats().PassesTriggered,
		"watcher must stay quiet after its own write-back settles")
}

func TestWatcher_ResetStats(t *testing.T) {
	w, err := New("/ws", []string{"a.js"}, newRunner("/ws"), time.Hour, nil)
	require.NoError(t, err)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: "/ws/a.js", Op: fsnotify.Write})
	require.NotZero(t, w.GetStats().FilesModified)

	w.ResetStats()
	assert.Zero(t, w.GetStats().FilesModified)
}
