package config

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHolderReload(t *testing.T) {
	path := writeFile(t, t.TempDir(), "effect:\n  text: one\n")
	h, err := NewHolder(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", h.Get().Effect.Text)

	var got []string
	cancel := h.Subscribe(func(c Config) { got = append(got, c.Effect.Text) })

	require.NoError(t, os.WriteFile(path, []byte("effect:\n  text: two\n"), 0o600))
	require.NoError(t, h.Reload())
	assert.Equal(t, "two", h.Get().Effect.Text)

	// invalid reloads keep the previous config
	require.NoError(t, os.WriteFile(path, []byte("effect:\n  text: \"\"\n"), 0o600))
	require.ErrorIs(t, h.Reload(), ErrInvalid)
	assert.Equal(t, "two", h.Get().Effect.Text)

	cancel()
	require.NoError(t, os.WriteFile(path, []byte("effect:\n  text: three\n"), 0o600))
	require.NoError(t, h.Reload())

	assert.Equal(t, []string{"two"}, got)
}

func TestNewHolderInvalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "render:\n  fps: 0\n")
	_, err := NewHolder(path, nil)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestHolderWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	path := writeFile(t, dir, "effect:\n  text: before\n")
	h, err := NewHolder(path, nil)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	h.Subscribe(func(c Config) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.Effect.Text)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// Let the watcher register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("effect:\n  text: after\n"), 0o600))

	require.Eventually(t, func() bool {
		return h.Get().Effect.Text == "after"
	}, 5*time.Second, 20*time.Millisecond)

	// Writing another file in the directory is ignored.
	require.NoError(t, os.WriteFile(path+".bak", []byte("junk"), 0o600))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, "after")
	assert.Equal(t, "after", h.Get().Effect.Text)
}

func TestHolderWatchWithoutFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, err := NewHolder("", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, h.Watch(ctx))
}
