package theme

import (
	"fmt"
	"log/slog"
	"sync"
)

// Service applies the theme rules:
//
//   - a stored Light or Dark wins;
//   - otherwise the effective theme follows the SystemPreference, including
//     later system changes;
//   - SetTheme(System) clears the stored choice.
//
// Service is safe for concurrent use. Listeners run on the goroutine
// that caused the change, without the service lock held.
type Service struct {
	store Store
	pref  SystemPreference
	log   *slog.Logger

	mu          sync.Mutex
	initialized bool
	dark        bool
	cancel      func()
	nextID      int
	listeners   map[int]func(Theme)
}

// NewService creates an uninitialized service. A nil store keeps the
// choice in memory; a nil pref reads the environment; a nil logger
// discards output.
func NewService(store Store, pref SystemPreference, log *slog.Logger) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	if pref == nil {
		pref = EnvPreference{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, pref: pref, log: log}
}

// Initialize resolves the effective theme and subscribes to system
// changes. Calls after the first are no-ops.
func (s *Service) Initialize() error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	s.initialized = true
	saved, err := s.stored()
	if err != nil {
		s.log.Warn("theme: read stored preference", "err", err)
	}
	s.dark = saved == Dark || (saved == "" && s.pref.PrefersDark())
	s.mu.Unlock()

	cancel := s.pref.Subscribe(s.systemChanged)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Debug("theme: initialized", "current", s.Current(), "dark", s.IsDark())
	return err
}

// Close stops following system changes.
func (s *Service) Close() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Service) systemChanged(dark bool) {
	s.mu.Lock()
	saved, err := s.stored()
	if err != nil || saved != "" || s.dark == dark {
		s.mu.Unlock()
		return
	}
	s.dark = dark
	s.mu.Unlock()
	s.notify()
}

// stored returns Light, Dark or "" for no explicit choice.
func (s *Service) stored() (Theme, error) {
	v, ok, err := s.store.Get(StorageKey)
	if err != nil || !ok {
		return "", err
	}
	switch t := Theme(v); t {
	case Light, Dark:
		return t, nil
	default:
		return "", nil
	}
}

// Current returns the stored choice, or System when there is none.
func (s *Service) Current() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := s.stored()
	if t == "" {
		return System
	}
	return t
}

// Effective resolves Current to Light or Dark.
func (s *Service) Effective() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveLocked()
}

// SystemPrefersDark reports the system preference regardless of the
// stored choice.
func (s *Service) SystemPrefersDark() bool {
	return s.pref.PrefersDark()
}

// IsDark reports whether the dark theme is applied. It is false before
// Initialize.
func (s *Service) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetTheme stores an explicit choice, or clears it for System, and
// applies it. A failed store write leaves the applied theme unchanged.
func (s *Service) SetTheme(t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))
	}

	s.mu.Lock()
	err := s.setLocked(t)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Debug("theme: set", "theme", t)
	s.notify()
	return nil
}

// setLocked writes t to the store and applies it on success. s.mu must be
// held.
func (s *Service) setLocked(t Theme) error {
	var (
		dark bool
		err  error
	)
	if t == System {
		dark = s.pref.PrefersDark()
		err = s.store.Delete(StorageKey)
	} else {
		dark = t == Dark
		err = s.store.Set(StorageKey, string(t))
	}
	if err != nil {
		return fmt.Errorf("theme: store %s: %w", t, err)
	}
	s.dark = dark
	return nil
}

// effectiveLocked is Effective with s.mu held.
func (s *Service) effectiveLocked() Theme {
	if t, _ := s.stored(); t != "" {
		return t
	}
	if s.pref.PrefersDark() {
		return Dark
	}
	return Light
}

// Toggle switches to the opposite of the effective theme and stores the
// result as an explicit choice. The read and the write happen under one
// lock, so concurrent toggles alternate.
func (s *Service) Toggle() error {
	s.mu.Lock()
	t := s.effectiveLocked().Opposite()
	err := s.setLocked(t)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Debug("theme: toggled", "theme", t)
	s.notify()
	return nil
}

// OnChange registers fn to receive the effective theme after every
// change. The returned function unregisters it.
func (s *Service) OnChange(fn func(Theme)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(Theme))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) notify() {
	s.mu.Lock()
	t := Light
	if s.dark {
		t = Dark
	}
	fns := make([]func(Theme), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}
