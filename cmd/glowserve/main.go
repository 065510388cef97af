// Command glowserve serves rendered glowtext frames over HTTP.
//
// Routes:
//
//	GET  /frame.png?text=&t=&strategy=&theme=&width=&dpr=
//	GET  /theme, PUT /theme, POST /theme/toggle
//	GET  /healthz
//	GET  /metrics
//
// The config file is watched; a reload changes the defaults of later
// requests and empties the frame cache.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/splashos/glowtext/config"
	"github.com/splashos/glowtext/internal/host"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (defaults when empty)")
		addr       = flag.String("addr", "", "listen address (overrides server.addr)")
		cacheMB    = flag.Int("cache-mb", 32, "frame cache size in MiB")
	)
	flag.Parse()

	env, err := host.Setup(*configPath, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}
	defer func() { _ = env.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	srv := newServer(env, reg, int64(*cacheMB)<<20)

	cancelSub := env.Holder.Subscribe(func(config.Config) {
		srv.cache.Clear()
		env.Log.Info("glowserve: config reloaded, frame cache cleared")
	})
	defer cancelSub()

	listen := env.Holder.Get().Server.Addr
	if *addr != "" {
		listen = *addr
	}
	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env.Log.Info("glowserve: listening", "addr", listen)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if env.Holder.Path() != "" {
		g.Go(func() error {
			if err := env.Holder.Watch(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	env.Log.Info("glowserve: stopped")
}
