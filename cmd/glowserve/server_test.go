package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/internal/host"
	"github.com/splashos/glowtext/theme"
)

func newTestServer(t *testing.T, yaml string) (*server, http.Handler) {
	t.Helper()
	orig := glowtext.Logger()
	t.Cleanup(func() { glowtext.SetLogger(orig) })

	path := ""
	if yaml != "" {
		path = filepath.Join(t.TempDir(), "glowtext.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	}
	env, err := host.Setup(path, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })

	srv := newServer(env, prometheus.NewRegistry(), 1<<20)
	return srv, srv.routes()
}

func do(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t, "")
	rec := do(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestFramePNG(t *testing.T) {
	srv, h := newTestServer(t, "")

	rec := do(h, http.MethodGet, "/frame.png?text=Hi&width=320&t=0.5&theme=dark", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Positive(t, img.Bounds().Dy())

	// the padded corner is the dark backdrop
	r, g, b, a := img.At(0, 0).RGBA()
	wr, wg, wb, wa := theme.Backdrop(theme.Dark).Color().RGBA()
	assert.Equal(t, []uint32{wr, wg, wb, wa}, []uint32{r, g, b, a})

	rec = do(h, http.MethodGet, "/frame.png?text=Hi&width=320&t=0.5&theme=dark", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, srv.cache.Len())

	rec = do(h, http.MethodGet, "/frame.png?text=Hi&width=320&t=0.5&theme=light", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
}

func TestFrameOutlivesCanceledRequest(t *testing.T) {
	srv, h := newTestServer(t, "")

	// a client that went away before the shared render started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/frame.png?text=Hi&width=320", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, srv.cache.Len())

	rec = do(h, http.MethodGet, "/frame.png?text=Hi&width=320", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))
}

func TestFrameBadRequest(t *testing.T) {
	_, h := newTestServer(t, "")

	tests := []struct {
		name  string
		query string
	}{
		{"negative time", "t=-1"},
		{"time too large", "t=600"},
		{"time not a number", "t=soon"},
		{"unknown strategy", "strategy=plasma"},
		{"system theme", "theme=system"},
		{"unknown theme", "theme=sepia"},
		{"dpr zero", "dpr=0"},
		{"dpr too large", "dpr=8"},
		{"width", "width=-5"},
		{"text too long", "text=" + strings.Repeat("a", maxTextRunes+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, "/frame.png?"+tt.query, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "bad_request", body["error"])
			assert.NotEmpty(t, body["detail"])
		})
	}
}

func TestFrameRateLimit(t *testing.T) {
	_, h := newTestServer(t, "server:\n  rate_limit: 2\n  rate_window: 1m\n")

	for i := range 2 {
		rec := do(h, http.MethodGet, "/frame.png?text=Hi&width=320", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := do(h, http.MethodGet, "/frame.png?text=Hi&width=320", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// other routes are not limited
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, "")
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/frame.png?text=Hi&width=320", nil).Code)

	rec := do(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "glowtext_frames_total 1")
	assert.Contains(t, body, "glowtext_mask_builds_total 1")
	assert.Contains(t, body, `glowserve_frame_requests_total{cache="miss"} 1`)
}

func TestThemeRoutes(t *testing.T) {
	_, h := newTestServer(t, "")

	rec := do(h, http.MethodPut, "/theme", strings.NewReader(`{"theme":"dark"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got themeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, themeResponse{Theme: theme.Dark, Effective: theme.Dark}, got)

	rec = do(h, http.MethodPost, "/theme/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, theme.Light, got.Effective)

	rec = do(h, http.MethodPut, "/theme", strings.NewReader(`{"theme":"neon"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/theme", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, theme.Light, got.Theme)
}
