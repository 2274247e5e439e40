// Command ctc runs the CTC coordinator as a standalone process: loads
// track layout and config, starts the communication core and HTTP
// surface, ticks the coordinator on a timer, and shuts down on signal.
// Grounded on cli/cmd/ariadne/main.go's flag parsing, config-file overlay,
// and signal-driven graceful shutdown shape.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	ctc "github.com/ctcsys/ctc-core"
	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/config"
	"github.com/ctcsys/ctc-core/internal/httpapi"
	"github.com/ctcsys/ctc-core/internal/telemetry/logging"
	"github.com/ctcsys/ctc-core/internal/telemetry/metrics"
	"github.com/ctcsys/ctc-core/internal/trackdata"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file overlaying defaults")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("ctc-core coordinator")
		return
	}

	cfg := config.Defaults()
	if configPath != "" {
		raw, err := os.ReadFile(configPath)
		if err != nil {
			fatalf("read config: %v", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			fatalf("decode config: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatalf("invalid config: %v", err)
	}

	log := logging.New(slog.Default())

	layout, err := trackdata.Load(cfg.TrackData.LayoutPath)
	if err != nil {
		fatalf("load track layout: %v", err)
	}

	var provider metrics.Provider
	if cfg.Telemetry.MetricsEnabled {
		switch cfg.Telemetry.MetricsBackend {
		case "otel":
			provider = metrics.NewOTel(metrics.OTelOptions{})
		case "noop":
			provider = metrics.NewNoop()
		default:
			provider = metrics.NewPrometheus(prometheus.NewRegistry())
		}
	} else {
		provider = metrics.NewNoop()
	}

	realClock := clock.Real{}
	sys := ctc.New(cfg, layout, realClock, log, provider)
	sys.Start()
	defer sys.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.InfoCtx(ctx, "signal received; shutting down")
		cancel()
		<-sigCh
		os.Exit(1)
	}()

	if cfg.TrackData.WatchReload {
		w, err := trackdata.NewWatcher(cfg.TrackData.LayoutPath, nil, log)
		if err != nil {
			log.WarnCtx(ctx, "track layout watcher unavailable", "error", err)
		} else {
			w.Start()
			defer w.Stop()
		}
	}

	router := httpapi.NewRouter(sys, httpapi.Options{
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		MetricsProvider: provider,
	})
	srv := &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: router}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	go func() {
		log.InfoCtx(ctx, "http listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorCtx(ctx, "http server exited", "error", err)
		}
	}()

	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sys.Tick(now)
		}
	}
}

func fatalf(format string, args ...any) {
	b, _ := json.Marshal(fmt.Sprintf(format, args...))
	fmt.Fprintln(os.Stderr, string(b))
	os.Exit(1)
}
