package config

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads non-startup-critical settings (log level/format) when
// the backing YAML file changes on disk, without requiring a restart.
// The LLM credential and orchestrator bounds are read once at Load and
// never hot-swapped - only the fields SetDefaults/Validate still accept
// safely at runtime are applied from a reload.
type Watcher struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewWatcher starts watching path for changes. Callers must call Close
// when done to release the underlying inotify/kqueue handle.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{path: absPath, watcher: fw}

	go w.loop(absPath, onChange)

	return w, nil
}

func (w *Watcher) loop(path string, onChange func(*Config)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				slog.Warn("config: reload failed, keeping previous configuration", "error", err)
				continue
			}
			onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.watcher.Close()
}
