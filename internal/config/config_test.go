package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/config"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsZeroTickInterval(t *testing.T) {
	cfg := config.Defaults()
	cfg.TickInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownMetricsBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telemetry.MetricsBackend = "carrier-pigeon"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingListenAddr(t *testing.T) {
	cfg := config.Defaults()
	cfg.HTTP.ListenAddr = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingLayoutPath(t *testing.T) {
	cfg := config.Defaults()
	cfg.TrackData.LayoutPath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveRearEndSeparation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Conflict.RearEndSeparationBlocks = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOverspeedFactorAtOrBelowOne(t *testing.T) {
	cfg := config.Defaults()
	cfg.Conflict.OverspeedFactor = 1.0
	assert.Error(t, cfg.Validate())
}
