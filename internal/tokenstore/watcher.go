package tokenstore

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"repfit/pkg/logging"
)

// DefaultWatchInterval is the fallback polling interval when fsnotify is
// not available.
const DefaultWatchInterval = 5 * time.Second

// DefaultDebounceInterval is the time to wait before notifying after the
// last file change is detected. Login writes the session via temp file +
// rename, which produces several events in quick succession.
const DefaultDebounceInterval = 500 * time.Millisecond

// WatcherConfig holds configuration for the session file watcher.
type WatcherConfig struct {
	// Store is the file store whose session file is monitored.
	Store *FileStore

	// WatchInterval is the fallback polling interval when fsnotify is
	// not available.
	WatchInterval time.Duration

	// OnChange is called after the session file changes on disk.
	OnChange func()
}

// Watcher monitors the session file for changes made by a sibling process
// (for example a login performed in another terminal) and invalidates the
// store's cache so the next Get observes the new state. It uses fsnotify
// with a fallback to polling for environments where fsnotify is not
// available or reliable.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTime time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a session file watcher for the given store.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	return &Watcher{config: config}
}

// Start begins watching for session file changes. Starting a watcher for
// a store without a usable storage directory is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	dir := w.config.Store.Dir()
	if dir == "" {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("TokenStore", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges(dir)
		return nil
	}

	if err := watcher.Add(dir); err != nil {
		logging.Warn("TokenStore", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges(dir)
		return nil
	}

	w.fsWatcher = watcher
	go w.watchLoop(watcher.Events, watcher.Errors)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
}

func (w *Watcher) watchLoop(events <-chan fsnotify.Event, errors <-chan error) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != sessionFileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.scheduleNotify()
			}
		case err, ok := <-errors:
			if !ok {
				return
			}
			logging.Warn("TokenStore", "Session watcher error: %v", err)
		case <-w.stopCh:
			return
		}
	}
}

// pollForChanges is the fallback when fsnotify is unavailable. It compares
// the session file's modification time on an interval.
func (w *Watcher) pollForChanges(dir string) {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	sessionPath := filepath.Join(dir, sessionFileName)

	for {
		select {
		case <-ticker.C:
			info, err := os.Stat(sessionPath)
			var modTime time.Time
			if err == nil {
				modTime = info.ModTime()
			}
			if !modTime.Equal(w.lastModTime) {
				w.lastModTime = modTime
				w.scheduleNotify()
			}
		case <-w.stopCh:
			return
		}
	}
}

// scheduleNotify debounces change notifications so a burst of filesystem
// events produces a single callback.
func (w *Watcher) scheduleNotify() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		logging.Debug("TokenStore", "Session file changed externally, invalidating cache")
		w.config.Store.Invalidate()
		if w.config.OnChange != nil {
			w.config.OnChange()
		}
	})
}
