package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"praxis/internal/logging"
)

// Watch reloads the config whenever the file at path changes and invokes
// onChange with the fresh config. The returned stop function releases the
// watcher. Reload failures are logged and the previous config stays live.
func Watch(path string, onChange func(*Config)) (stop func(), err error) {
	if path == "" {
		path = DefaultFileName
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file, which drops a
	// watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	done := make(chan struct{})
	go func() {
		log := logging.Get(logging.CategoryConfig)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				cfg, err := Load(abs)
				if err != nil {
					log.Warnw("config reload failed", "path", abs, "err", err)
					continue
				}
				log.Infow("config reloaded", "path", abs)
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnw("config watcher error", "err", err)
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
