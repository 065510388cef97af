package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/splashos/glowtext"
	"github.com/splashos/glowtext/clock"
	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/internal/framecache"
	"github.com/splashos/glowtext/internal/host"
	"github.com/splashos/glowtext/metrics"
	"github.com/splashos/glowtext/text"
	"github.com/splashos/glowtext/theme"
)

// Request limits for /frame.png.
const (
	maxTextRunes = 64
	maxAt        = 10 * time.Second
	maxDPR       = 3.0
	maxWidth     = 3840
)

// renderTimeout bounds the wait for a render slot.
const renderTimeout = 20 * time.Second

// server renders single frames on demand.
type server struct {
	holder   *config.Holder
	registry *text.Registry
	theme    *theme.Service
	log      *slog.Logger

	gatherer prometheus.Gatherer
	metrics  *metrics.Collectors
	requests *prometheus.CounterVec

	cache   *framecache.Cache
	renders *semaphore.Weighted
}

func newServer(env *host.Env, reg *prometheus.Registry, cacheBytes int64) *server {
	return &server{
		holder:   env.Holder,
		registry: env.Registry,
		theme:    env.Theme,
		log:      env.Log,
		gatherer: reg,
		metrics:  metrics.New(reg),
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "glowserve_frame_requests_total",
			Help: "Total number of frame requests, by cache result.",
		}, []string{"cache"}),
		cache:   framecache.New(cacheBytes),
		renders: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

// routes builds the HTTP router. The rate limit applies to frame renders
// only.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/theme", func(r chi.Router) {
		r.Get("/", s.getTheme)
		r.Put("/", s.putTheme)
		r.Post("/toggle", s.toggleTheme)
	})

	cfg := s.holder.Get().Server
	r.Group(func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		r.Get("/frame.png", s.frame)
	})
	return r
}

// rateLimit limits requests per client IP, answering 429 with Retry-After.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(max(int(window.Seconds()), 1)))
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		}),
	)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("glowserve: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// frameRequest is a parsed /frame.png query.
type frameRequest struct {
	opts    glowtext.Options
	at      time.Duration
	theme   theme.Theme
	backend string
}

// key identifies the rendered image. Fields that do not change pixels are
// left out.
func (fr frameRequest) key() string {
	o := fr.opts
	return fmt.Sprintf("%q|%s|%s|%s|%s|%g|%g|%g|%g|%d|%q|%d|%t|%g|%g|%g|%d",
		o.Text, strings.Join(o.Colors, ","), o.Strategy, fr.backend, fr.theme,
		fr.at.Seconds(), o.Speed, o.Blur, o.FontSize, o.ParticleCount,
		o.FontFamily, o.FontWeight, o.Italic, o.DevicePixelRatio,
		o.Glow, o.Saturation, o.Seed)
}

// parseFrameRequest reads the query over the current effect config.
//
//	text      string, at most maxTextRunes runes
//	t         animation time in seconds, 0 to maxAt
//	strategy  particle or noise
//	theme     light or dark; default is the service's effective theme
//	width     viewport width for the responsive font size
//	dpr       device pixel ratio, up to maxDPR
func (s *server) parseFrameRequest(r *http.Request) (frameRequest, error) {
	cfg := s.holder.Get()
	qv := r.URL.Query()

	if v := qv.Get("text"); v != "" {
		if n := len([]rune(v)); n > maxTextRunes {
			return frameRequest{}, fmt.Errorf("text: %d runes, at most %d", n, maxTextRunes)
		}
		cfg.Effect.Text = v
	}
	if v := qv.Get("strategy"); v != "" {
		cfg.Effect.Strategy = v
	}

	width := float64(cfg.Render.Width)
	if v := qv.Get("width"); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil || w <= 0 || w > maxWidth {
			return frameRequest{}, fmt.Errorf("width: want 1 to %d, got %q", maxWidth, v)
		}
		width = float64(w)
	}

	var dpr float64
	if v := qv.Get("dpr"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d <= 0 || d > maxDPR {
			return frameRequest{}, fmt.Errorf("dpr: want (0, %g], got %q", maxDPR, v)
		}
		dpr = d
	}

	opts, err := host.EffectOptions(cfg, width, dpr)
	if err != nil {
		return frameRequest{}, err
	}

	req := frameRequest{opts: opts, theme: s.theme.Effective(), backend: cfg.Effect.Backend}
	if v := qv.Get("t"); v != "" {
		sec, err := strconv.ParseFloat(v, 64)
		if err != nil || sec < 0 || sec > maxAt.Seconds() {
			return frameRequest{}, fmt.Errorf("t: want 0 to %g seconds, got %q", maxAt.Seconds(), v)
		}
		req.at = time.Duration(sec * float64(time.Second))
	}
	if v := qv.Get("theme"); v != "" {
		t, err := theme.Parse(v)
		if err != nil || t == theme.System {
			return frameRequest{}, fmt.Errorf("theme: want light or dark, got %q", v)
		}
		req.theme = t
	}
	return req, nil
}

func (s *server) frame(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseFrameRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The render is shared by every request with the same key, so it must
	// outlive the request that started it.
	data, hit, err := s.cache.GetOrRender(req.key(), func() ([]byte, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), renderTimeout)
		defer cancel()
		if err := s.renders.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("wait for a render slot: %w", err)
		}
		defer s.renders.Release(1)
		return s.render(req)
	})
	switch {
	case errors.Is(err, host.ErrNoFrame), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case err != nil:
		s.log.Warn("glowserve: render", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	s.requests.WithLabelValues(result).Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Cache", result)
	_, _ = w.Write(data)
}

// render draws one frame with a fresh component so requests share only
// the font registry.
func (s *server) render(req frameRequest) ([]byte, error) {
	q := clock.NewFrameQueue()
	eff, err := glowtext.New(q, req.opts,
		glowtext.WithLogger(s.log),
		glowtext.WithRegistry(s.registry),
		glowtext.WithMetrics(s.metrics),
		glowtext.WithFieldFactory(host.FieldFactory(req.backend, s.log)),
	)
	if err != nil {
		return nil, err
	}
	defer eff.Unmount()

	pix, err := host.RenderAt(eff, q, req.at, theme.Backdrop(req.theme))
	if err != nil {
		if eff.Degraded() {
			return nil, fmt.Errorf("%w: %w", host.ErrNoFrame, err)
		}
		return nil, err
	}
	var buf bytes.Buffer
	if err := pix.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type themeResponse struct {
	Theme     theme.Theme `json:"theme"`
	Effective theme.Theme `json:"effective"`
}

func (s *server) getTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, themeResponse{Theme: s.theme.Current(), Effective: s.theme.Effective()})
}

func (s *server) putTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	t, err := theme.Parse(body.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.theme.SetTheme(t); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.getTheme(w, r)
}

func (s *server) toggleTheme(w http.ResponseWriter, r *http.Request) {
	if err := s.theme.Toggle(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.getTheme(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error":  strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_"),
		"detail": err.Error(),
	})
}
