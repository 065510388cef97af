package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long Watch waits after the last file event
// before reloading.
const DebounceInterval = 250 * time.Millisecond

// Holder keeps the current configuration and reloads it from its file.
// A reload that fails to parse or validate keeps the previous config.
//
// Holder is safe for concurrent use.
type Holder struct {
	path string
	log  *slog.Logger

	mu      sync.RWMutex
	current Config

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(Config)
}

// NewHolder loads path and returns a holder for it. A nil logger
// discards output.
func NewHolder(path string, log *slog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Holder{path: path, log: log, current: cfg}, nil
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Path returns the watched file, or "" for defaults only.
func (h *Holder) Path() string {
	return h.path
}

// Reload re-reads the file. On error the current config is kept.
func (h *Holder) Reload() error {
	cfg, err := Load(h.path)
	if err != nil {
		h.log.Error("config: reload failed, keeping previous configuration", "path", h.path, "err", err)
		return fmt.Errorf("config: reload: %w", err)
	}

	h.mu.Lock()
	h.current = cfg
	h.mu.Unlock()

	h.log.Info("config: reloaded", "path", h.path)
	h.notify(cfg)
	return nil
}

// Subscribe registers fn to receive every successfully reloaded config.
// fn runs on the goroutine that reloaded. The returned function
// unregisters it.
func (h *Holder) Subscribe(fn func(Config)) (cancel func()) {
	h.subsMu.Lock()
	defer h.subsMu.Unlock()
	if h.subs == nil {
		h.subs = make(map[int]func(Config))
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() {
		h.subsMu.Lock()
		defer h.subsMu.Unlock()
		delete(h.subs, id)
	}
}

func (h *Holder) notify(cfg Config) {
	h.subsMu.Lock()
	fns := make([]func(Config), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subsMu.Unlock()

	for _, fn := range fns {
		fn(cfg)
	}
}

// Watch reloads the file whenever it changes, DebounceInterval after the
// last event, until ctx is done. It blocks; run it on its own goroutine.
// Without a file it waits for ctx and returns nil.
//
// The parent directory is watched so editors that replace the file by
// rename are picked up.
func (h *Holder) Watch(ctx context.Context) error {
	if h.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(h.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config: watch %s: %w", target, err)
	}
	h.log.Info("config: watching", "path", target)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("config: watcher stopped", "path", target)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.log.Debug("config: file changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(DebounceInterval)
			} else {
				timer.Reset(DebounceInterval)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			_ = h.Reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.log.Error("config: watcher error", "err", err)
		}
	}
}
