package theme

import (
	"fmt"
	"sync"
)

// Store persists string values by key.
//
// Get reports ok == false for a missing key; err is reserved for storage
// failures.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is a Store that lives for the process. The zero value is
// ready to use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// OpenStore opens a store by kind: "memory", "gdata" (appName's user data
// directory) or "badger" (path, or in-memory when empty). The returned
// close function is never nil.
func OpenStore(kind, path, appName string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch kind {
	case "", "memory":
		return NewMemoryStore(), noop, nil
	case "gdata":
		s, err := OpenGDataStore(appName)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "badger":
		s, err := OpenBadgerStore(path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("theme: unknown store %q", kind)
	}
}
