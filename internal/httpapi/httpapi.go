// Package httpapi is the operator-facing HTTP surface: health/readiness,
// metrics exposition, block close/open operations, and train/block
// inspection. It has no route-request or event-stream endpoint. Grounded on
// engine/adapters/telemetryhttp/handlers.go's health/readiness/metrics
// handler shapes, rebuilt on a chi router (go-chi/chi/v5 + go-chi/cors)
// since the teacher's adapter used bare net/http and this pack's
// chi/cors pair is the idiomatic router choice across the rest of the
// example set.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	ctc "github.com/ctcsys/ctc-core"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/health"
	"github.com/ctcsys/ctc-core/internal/telemetry/metrics"
)

// Options configures the router.
type Options struct {
	AllowedOrigins  []string
	MetricsProvider metrics.Provider
}

// NewRouter builds the chi router over a running System.
func NewRouter(sys *ctc.System, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", healthHandler(sys, false))
	r.Get("/readyz", healthHandler(sys, true))
	if opts.MetricsProvider != nil {
		if mp, ok := opts.MetricsProvider.(interface{ MetricsHandler() http.Handler }); ok {
			r.Handle("/metrics", mp.MetricsHandler())
		}
	}

	r.Get("/trains", listTrainsHandler(sys))
	r.Get("/lines/{line}/blocks/{number}", blockSummaryHandler(sys))
	r.Post("/lines/{line}/blocks/{number}/close", closeBlockHandler(sys))
	r.Post("/lines/{line}/blocks/{number}/open", openBlockHandler(sys))

	return r
}

type healthResponse struct {
	Overall   health.Status        `json:"overall"`
	Probes    []health.ProbeResult `json:"probes,omitempty"`
	Generated time.Time            `json:"generated"`
	TTL       time.Duration        `json:"ttl"`
	Ready     *bool                `json:"ready,omitempty"`
}

func healthHandler(sys *ctc.System, readiness bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := sys.Health(r.Context())
		resp := healthResponse{Overall: snap.Overall, Probes: snap.Probes, Generated: snap.Generated, TTL: snap.TTL}
		w.Header().Set("Content-Type", "application/json")
		if readiness {
			ready := snap.Overall == health.StatusHealthy || snap.Overall == health.StatusDegraded
			resp.Ready = &ready
			if !ready {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(resp)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func listTrainsHandler(sys *ctc.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sys.TrainSnapshots())
	}
}

func blockSummaryHandler(sys *ctc.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		line := models.Line(chi.URLParam(r, "line"))
		number, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			http.Error(w, "invalid block number", http.StatusBadRequest)
			return
		}
		summary, ok := sys.BlockSummary(line, number)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summary)
	}
}

type closureRequest struct {
	ScheduledTime time.Time     `json:"scheduled_time"`
	Duration      time.Duration `json:"duration_ns" validate:"omitempty,gte=0"`
}

var validate = validator.New()

func closeBlockHandler(sys *ctc.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		line := models.Line(chi.URLParam(r, "line"))
		number, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			http.Error(w, "invalid block number", http.StatusBadRequest)
			return
		}
		var req closureRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c, err := sys.CloseBlock(line, number, req.ScheduledTime, req.Duration)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(c)
	}
}

func openBlockHandler(sys *ctc.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		line := models.Line(chi.URLParam(r, "line"))
		number, err := strconv.Atoi(chi.URLParam(r, "number"))
		if err != nil {
			http.Error(w, "invalid block number", http.StatusBadRequest)
			return
		}
		sys.OpenBlock(line, number)
		w.WriteHeader(http.StatusNoContent)
	}
}
