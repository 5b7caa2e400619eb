package tokenstore

import (
	"testing"
	"time"
)

func TestWatcherDetectsExternalWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	changed := make(chan struct{}, 1)
	watcher := NewWatcher(WatcherConfig{
		Store:         store,
		WatchInterval: 100 * time.Millisecond,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer watcher.Stop()

	// Simulate a sibling process writing a new session.
	external := NewFileStore(dir)
	if err := external.Set(&Session{AccessToken: "from-other-terminal", RefreshToken: "r1"}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification after external write")
	}

	// The cache was invalidated, so the watching store sees the new value.
	sess, ok := store.Get()
	if !ok {
		t.Fatal("expected session after external write")
	}
	if sess.AccessToken != "from-other-terminal" {
		t.Errorf("AccessToken = %q, want %q", sess.AccessToken, "from-other-terminal")
	}
}

func TestWatcherStartWithoutDirIsNoop(t *testing.T) {
	store := &FileStore{}
	watcher := NewWatcher(WatcherConfig{Store: store})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	watcher.Stop()
}

func TestWatcherStopIdempotent(t *testing.T) {
	store := NewFileStore(t.TempDir())
	watcher := NewWatcher(WatcherConfig{Store: store})
	if err := watcher.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	watcher.Stop()
	watcher.Stop()
}
