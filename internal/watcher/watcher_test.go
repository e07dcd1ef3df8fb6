package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CageChen/fileexplorer/internal/config"
	"github.com/CageChen/fileexplorer/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Root = root

	w, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w, root
}

func TestHandleEvent_RelativeDir(t *testing.T) {
	w, root := newTestWatcher(t)

	var got []Event
	w.OnChange(func(e Event) { got = append(got, e) })

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "docs", "a.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "b.md"), Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, ".git"), Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "c.md"), Op: fsnotify.Chmod})

	require.Len(t, got, 2)
	assert.Equal(t, Event{Type: EventWrite, Dir: "docs", Name: "a.md"}, got[0])
	assert.Equal(t, Event{Type: EventCreate, Dir: "", Name: "b.md"}, got[1])
}

func TestHandleEvent_OutsideRoot(t *testing.T) {
	w, _ := newTestWatcher(t)
	called := false
	w.OnChange(func(Event) { called = true })

	w.handleEvent(fsnotify.Event{Name: filepath.Join(os.TempDir(), "elsewhere", "x"), Op: fsnotify.Write})
	assert.False(t, called)
}

func TestWatch_DeliversEvents(t *testing.T) {
	w, root := newTestWatcher(t)

	events := make(chan Event, 8)
	w.OnChange(func(e Event) { events <- e })
	require.NoError(t, w.Watch(""))
	require.NoError(t, w.Watch(""))
	assert.Equal(t, 1, w.Watched())
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0o644))

	select {
	case e := <-events:
		assert.Equal(t, "new.txt", e.Name)
		assert.Equal(t, "", e.Dir)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	w, _ := newTestWatcher(t)
	assert.Error(t, w.Watch("missing"))
	assert.Zero(t, w.Watched())
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "create", EventCreate.String())
	assert.Equal(t, "update", EventWrite.String())
	assert.Equal(t, "remove", EventRemove.String())
	assert.Equal(t, "rename", EventRename.String())
}
