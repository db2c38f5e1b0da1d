package templates

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is the time to wait after a file event before reloading.
// This coalesces rapid successive writes (editors, sync tools) into one scan.
var debounceDelay = 100 * time.Millisecond

// Watcher reloads a Library when files in its directory change, so a newly
// dropped template .md becomes available without a restart.
type Watcher struct {
	library *Library
	logger  *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
	running bool
}

// NewWatcher creates a watcher over the library's directory.
// Call Start to begin watching and Stop to release resources.
func NewWatcher(library *Library, logger *slog.Logger) *Watcher {
	return &Watcher{library: library, logger: logger}
}

func (w *Watcher) log() *slog.Logger {
	if w.logger != nil {
		return w.logger
	}
	return slog.Default()
}

// Start begins watching the template directory. Start must not be called more
// than once without an intervening Stop. Must not block.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.library == nil {
		return errors.New("template watcher: library must not be nil")
	}
	if w.running {
		return errors.New("template watcher: already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.library.dir); err != nil {
		watcher.Close()
		return err
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.running = true

	go w.loop(watcher, w.done)
	return nil
}

// Stop ceases watching and releases all resources. Safe to call when not
// started.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.done)
	err := w.watcher.Close()
	w.watcher = nil
	w.running = false
	return err
}

// loop debounces events and reloads. Only .md changes trigger a reload.
func (w *Watcher) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := w.library.Reload(); err != nil {
				w.log().Warn("template reload failed", "error", err)
			} else {
				w.log().Info("templates reloaded", "count", len(w.library.Names()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log().Warn("template watcher error", "error", err)
		}
	}
}
