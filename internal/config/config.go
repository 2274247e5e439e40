// Package config is the public configuration surface, grounded on
// engine/config.go's flat Config+Defaults() composing nested subsystem
// configs. Struct-tag validated via github.com/go-playground/validator/v10
// (enrichment dependency), a concern the teacher's config.go handles only
// ad hoc.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type RouteManagerConfig struct {
	CacheTTL      time.Duration `validate:"gt=0"`
	CacheCapacity int           `validate:"gt=0"`
}

type ClosureConfig struct {
	TickInterval time.Duration `validate:"gt=0"`
}

// ConflictConfig tunes the Tick-driven conflict detectors (spec §4.9) that
// have no natural default in the domain itself: how close a following train
// may trail a leading one before it's flagged, and how far over a block's
// posted limit a commanded speed may run before it's flagged.
type ConflictConfig struct {
	RearEndSeparationBlocks int     `validate:"gt=0"`
	OverspeedFactor         float64 `validate:"gt=1"`
}

type TelemetryConfig struct {
	MetricsEnabled       bool
	MetricsBackend       string `validate:"omitempty,oneof=prom otel noop"`
	PrometheusListenAddr string
	HealthTTL            time.Duration `validate:"gt=0"`
	EventBufferPerSub    int           `validate:"gt=0"`
}

type HTTPConfig struct {
	ListenAddr     string `validate:"required"`
	AllowedOrigins []string
}

type TrackDataConfig struct {
	LayoutPath  string `validate:"required"`
	WatchReload bool
}

// Config is the facade configuration, composing every subsystem's tuning
// knobs. Track-layout data itself is loaded separately via internal/trackdata.
type Config struct {
	RouteManager RouteManagerConfig `validate:"required"`
	Closure      ClosureConfig      `validate:"required"`
	Conflict     ConflictConfig     `validate:"required"`
	Telemetry    TelemetryConfig    `validate:"required"`
	HTTP         HTTPConfig         `validate:"required"`
	TrackData    TrackDataConfig    `validate:"required"`

	TickInterval time.Duration `validate:"gt=0"`
}

// Defaults returns a Config with reasonable defaults, mirroring the
// teacher's Defaults() constructor.
func Defaults() Config {
	return Config{
		RouteManager: RouteManagerConfig{CacheTTL: 5 * time.Minute, CacheCapacity: 128},
		Closure:      ClosureConfig{TickInterval: time.Second},
		Conflict:     ConflictConfig{RearEndSeparationBlocks: 5, OverspeedFactor: 1.1},
		Telemetry: TelemetryConfig{
			MetricsEnabled:    false,
			MetricsBackend:    "prom",
			HealthTTL:         2 * time.Second,
			EventBufferPerSub: 64,
		},
		HTTP:         HTTPConfig{ListenAddr: ":8080"},
		TrackData:    TrackDataConfig{LayoutPath: "trackdata/layout.yaml", WatchReload: true},
		TickInterval: time.Second,
	}
}

var validate = validator.New()

// Validate runs struct-tag validation over the decoded config, returning the
// validator's error unchanged so the caller can log it and reject startup.
func (c Config) Validate() error {
	return validate.Struct(c)
}
