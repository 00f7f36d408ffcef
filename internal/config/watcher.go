package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
)

// debounceWindow coalesces the burst of filesystem events most editors emit
// on save (write + chmod, or remove + create for atomic renames).
const debounceWindow = 200 * time.Millisecond

// Watcher monitors a config file for changes and re-loads it on modification.
// Hot reload is intended for non-critical settings such as log level and
// catalog range overrides; callers decide which parts of the fresh Config are
// safe to apply at runtime.
type Watcher struct {
	path     string
	onChange func(*Config)
	logger   logging.Logger
	fsw      *fsnotify.Watcher
}

// NewWatcher creates a Watcher for the config file at path.  onChange is
// invoked with the freshly loaded Config after each successful reload; a
// change that fails to parse or validate is logged and skipped so the
// application never observes a broken configuration.
func NewWatcher(path string, onChange func(*Config), logger logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the parent directory rather than the file itself: atomic saves
	// replace the inode, which would silently detach a file-level watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger.Named("config.watcher"),
		fsw:      fsw,
	}, nil
}

// Run blocks processing filesystem events until ctx is cancelled or the
// underlying watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watch error", logging.Err(err))
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring invalid config change",
			logging.String("path", w.path),
			logging.Err(err))
		return
	}
	w.logger.Info("configuration reloaded", logging.String("path", w.path))
	w.onChange(cfg)
}

// Close stops the watcher and releases its filesystem resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
