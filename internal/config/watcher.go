package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RobertBroersma/dmx-hackathon/internal/logging"
)

// Editors often write a file in several steps; events closer together than
// this are folded into one reload.
const reloadDebounce = 200 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	logger   *logging.Logger
}

// NewWatcher watches path. The parent directory is watched so that editors
// replacing the file through a rename are still seen.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		onChange: onChange,
		logger:   logging.WithComponent("config"),
	}, nil
}

// Run delivers reloaded configs until ctx is done. Files that fail to parse
// or validate are logged and skipped; the previous config stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.path)
	if err != nil {
		w.logger.Warn("ignoring config change", "path", w.path, "error", err)
		return
	}

	w.logger.Info("configuration changed on disk", "path", w.path)
	w.onChange(cfg)
}
