package trackdata_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/events"
	"github.com/ctcsys/ctc-core/internal/trackdata"
)

const sampleYAML = `
lines:
  Green:
    - number: 0
      length_m: 50
    - number: 1
      length_m: 100
      has_switch: true
    - number: 2
      length_m: 120
      has_station: true
      station_id: 7
      station_name: "Central"
`

func TestParse(t *testing.T) {
	layout, err := trackdata.Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, layout.Lines[models.LineGreen], 3)
	assert.True(t, layout.Lines[models.LineGreen][1].HasSwitch)
	require.NotNil(t, layout.Lines[models.LineGreen][2].Station)
	assert.Equal(t, "Central", layout.Lines[models.LineGreen][2].Station.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := trackdata.Load("/nonexistent/path/layout.yaml")
	assert.Error(t, err)
}

func TestWatcherPublishesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	bus := events.NewBus(nil)
	sub, err := bus.Subscribe(4)
	require.NoError(t, err)
	defer sub.Close()

	w, err := trackdata.NewWatcher(path, bus, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(sampleYAML+"\n# changed\n"), 0o644))

	select {
	case ev := <-sub.C():
		assert.Equal(t, events.CategoryConfigChange, ev.Category)
		assert.Equal(t, "track_layout_changed", ev.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a config_change event after file write")
	}
}
