package theme

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

// gdataObject groups the theme keys in the gdata user directory.
const gdataObject = "preferences"

// GDataStore keeps values in the per-user application data directory
// managed by gdata. A key holding an empty value counts as absent.
type GDataStore struct {
	m *gdata.Manager
}

var _ Store = (*GDataStore)(nil)

// OpenGDataStore opens the data directory of appName.
func OpenGDataStore(appName string) (*GDataStore, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("theme: open gdata %q: %w", appName, err)
	}
	return NewGDataStore(m), nil
}

// NewGDataStore wraps an open manager.
func NewGDataStore(m *gdata.Manager) *GDataStore {
	return &GDataStore{m: m}
}

// Get implements Store.
func (s *GDataStore) Get(key string) (string, bool, error) {
	if !s.m.ObjectPropExists(gdataObject, key) {
		return "", false, nil
	}
	data, err := s.m.LoadObjectProp(gdataObject, key)
	if err != nil {
		return "", false, fmt.Errorf("theme: load %q: %w", key, err)
	}
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Set implements Store.
func (s *GDataStore) Set(key, value string) error {
	if err := s.m.SaveObjectProp(gdataObject, key, []byte(value)); err != nil {
		return fmt.Errorf("theme: save %q: %w", key, err)
	}
	return nil
}

// Delete implements Store by writing an empty value.
func (s *GDataStore) Delete(key string) error {
	if !s.m.ObjectPropExists(gdataObject, key) {
		return nil
	}
	return s.Set(key, "")
}
