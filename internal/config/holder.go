package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder gives threads a consistent view of the configuration and swaps
// it atomically on reload. A reload that fails to load or validate leaves
// the running configuration untouched.
type Holder struct {
	mu      sync.RWMutex
	current Config

	path    string
	watcher *fsnotify.Watcher
	logger  zerolog.Logger

	listenMu  sync.RWMutex
	listeners []chan<- Config
}

// NewHolder wraps an already-validated initial configuration.
func NewHolder(initial Config, path string, logger zerolog.Logger) *Holder {
	return &Holder{
		current: initial,
		path:    path,
		logger:  logger.With().Str("component", "config").Logger(),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload re-reads the config file and swaps the configuration in if it
// validates.
func (h *Holder) Reload(_ context.Context) error {
	cfg, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload rejected")
		return err
	}

	h.mu.Lock()
	h.current = cfg
	h.mu.Unlock()

	h.notify(cfg)
	h.logger.Info().Msg("configuration reloaded")
	return nil
}

// Subscribe registers a channel that receives every successfully reloaded
// configuration. Sends are non-blocking; a full channel misses the
// update.
func (h *Holder) Subscribe(ch chan<- Config) {
	h.listenMu.Lock()
	defer h.listenMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(cfg Config) {
	h.listenMu.RLock()
	defer h.listenMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- cfg:
		default:
			h.logger.Warn().Msg("config listener missed an update")
		}
	}
}

// Watch follows the config file until ctx is cancelled, reloading after
// each write with a short debounce. With no config file it blocks until
// cancellation.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		h.logger.Info().Msg("no config file, watcher idle")
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	h.watcher = watcher

	if err := watcher.Add(h.path); err != nil {
		return fmt.Errorf("watch %s: %w", h.path, err)
	}
	h.logger.Info().Str("path", h.path).Msg("watching config file")

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			// Editors fire bursts of events per save; take the last one.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().Err(err).Msg("automatic reload failed")
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
