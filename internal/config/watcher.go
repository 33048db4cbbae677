package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/codenerd-labs/bookmarkd/internal/logging"
)

// Watcher reloads Config from disk whenever its backing YAML file changes.
// OnChange receives the full reloaded Config after every successful
// reload; which fields take effect live is up to the callback (the CLI's
// callback applies only rate limits and logging settings, so scoring
// weights and the embedding recipe are not picked up live).
type Watcher struct {
	mu      sync.RWMutex
	path    string
	current *Config
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Watch starts watching path for writes and reloads the config on each one.
// onChange is called with the freshly reloaded config; a reload that fails
// to parse is logged and skipped, leaving the last good config in place.
// path must already exist; Watch does not create it.
func Watch(path string, initial *Config, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		current: initial,
		watcher: fw,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	go w.run(onChange)
	return w, nil
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Stop stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

func (w *Watcher) run(onChange func(*Config)) {
	defer close(w.doneCh)
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := Load(w.path)
			if err != nil {
				logging.Get(logging.CategoryBoot).Warn("config reload failed, keeping previous config: %v", err)
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			logging.Get(logging.CategoryBoot).Info("config reloaded from %s", w.path)
			if onChange != nil {
				onChange(cfg)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Warn("config watcher error: %v", err)
		}
	}
}
