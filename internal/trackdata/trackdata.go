// Package trackdata implements the Track Reader contract (spec §6,
// consumed): loading the per-line ordered block sequence once at startup
// from YAML, plus a change-detection watch over the layout file.
// Grounded on engine/internal/runtime/runtime.go's HotReloadSystem
// (fsnotify + checksum versioning), adapted so a detected change is
// published as an event rather than hot-swapped into live block state —
// topology changes require an operator-acknowledged reload, preserving
// spec.md's "Track data is read once at startup" invariant.
package trackdata

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/events"
	"github.com/ctcsys/ctc-core/internal/telemetry/logging"
)

type yamlBlock struct {
	Number        int     `yaml:"number"`
	LengthM       float64 `yaml:"length_m"`
	GradePercent  float64 `yaml:"grade_percent"`
	SpeedLimitKMH float64 `yaml:"speed_limit_kmh"`
	HasSwitch     bool    `yaml:"has_switch"`
	HasCrossing   bool    `yaml:"has_crossing"`
	HasStation    bool    `yaml:"has_station"`
	StationID     int     `yaml:"station_id"`
	StationName   string  `yaml:"station_name"`
	Bidirectional bool    `yaml:"bidirectional"`
	ElevationM    float64 `yaml:"elevation_m"`
	Underground   bool    `yaml:"is_underground"`
	Section       string  `yaml:"section"`
	Direction     string  `yaml:"direction"`
}

type yamlLayout struct {
	Lines map[string][]yamlBlock `yaml:"lines"`
}

// Load reads and parses a track-layout YAML file into a models.TrackLayout.
func Load(path string) (models.TrackLayout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.TrackLayout{}, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (models.TrackLayout, error) {
	var y yamlLayout
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return models.TrackLayout{}, err
	}
	layout := models.TrackLayout{Lines: make(map[models.Line][]models.BlockRecord)}
	for lineName, blocks := range y.Lines {
		line := models.Line(lineName)
		recs := make([]models.BlockRecord, 0, len(blocks))
		for _, b := range blocks {
			rec := models.BlockRecord{
				Number: b.Number, Line: line, LengthM: b.LengthM, GradePercent: b.GradePercent,
				SpeedLimitKMH: b.SpeedLimitKMH, HasSwitch: b.HasSwitch, HasCrossing: b.HasCrossing,
				HasStation: b.HasStation, Bidirectional: b.Bidirectional, ElevationM: b.ElevationM,
				Underground: b.Underground, Section: b.Section, Direction: b.Direction,
			}
			if b.HasStation {
				rec.Station = &models.Station{ID: b.StationID, Name: b.StationName}
			}
			if b.HasSwitch {
				rec.Switch = &models.SwitchSpec{}
			}
			recs = append(recs, rec)
		}
		layout.Lines[line] = recs
	}
	return layout, nil
}

func checksum(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Watcher watches the layout file for changes and publishes a config_change
// event carrying the new checksum when content actually differs — it never
// re-parses into live block state itself.
type Watcher struct {
	path       string
	lastSum    string
	watcher    *fsnotify.Watcher
	bus        events.Bus
	log        logging.Logger
	stopCh     chan struct{}
}

func NewWatcher(path string, bus events.Bus, log logging.Logger) (*Watcher, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{path: path, lastSum: checksum(raw), watcher: fw, bus: bus, log: log, stopCh: make(chan struct{})}, nil
}

func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.checkChanged()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.ErrorCtx(context.Background(), "track layout watch error", "error", err)
			}
		}
	}
}

func (w *Watcher) checkChanged() {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	sum := checksum(raw)
	if sum == w.lastSum {
		return
	}
	w.lastSum = sum
	if w.bus != nil {
		_ = w.bus.Publish(events.Event{
			Category: events.CategoryConfigChange,
			Type:     "track_layout_changed",
			Fields:   map[string]any{"path": w.path, "checksum": sum},
		})
	}
}
