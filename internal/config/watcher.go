package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a config file when it changes and hands every handler the
// fresh copy. Handlers run on the watcher goroutine.
type Watcher struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	handlers []func(*Config)
	watcher  *fsnotify.Watcher
}

func NewWatcher(path string, debounce time.Duration, log zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{path: path, debounce: debounce, log: log}
}

// OnReload registers h.
func (w *Watcher) OnReload(h func(*Config)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.path); err != nil {
		return err
	}
	w.log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("config watcher started")

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			// some editors replace the file instead of writing it
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed; keeping previous settings")
		return
	}
	w.mu.Lock()
	hs := append([]func(*Config){}, w.handlers...)
	w.mu.Unlock()
	for _, h := range hs {
		h(c)
	}
}
