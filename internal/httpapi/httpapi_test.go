package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctc "github.com/ctcsys/ctc-core"
	"github.com/ctcsys/ctc-core/internal/clock"
	"github.com/ctcsys/ctc-core/internal/config"
	"github.com/ctcsys/ctc-core/internal/httpapi"
	"github.com/ctcsys/ctc-core/internal/models"
	"github.com/ctcsys/ctc-core/internal/telemetry/metrics"
)

func testLayout() models.TrackLayout {
	recs := make([]models.BlockRecord, 10)
	for i := range recs {
		recs[i] = models.BlockRecord{Number: i, Line: models.LineGreen}
	}
	return models.TrackLayout{Lines: map[models.Line][]models.BlockRecord{models.LineGreen: recs}}
}

func newTestSystem(t *testing.T) *ctc.System {
	t.Helper()
	cfg := config.Defaults()
	sys := ctc.New(cfg, testLayout(), clock.NewFake(time.Unix(0, 0)), nil, metrics.NewNoop())
	sys.Start()
	t.Cleanup(sys.Stop)
	return sys
}

func TestHealthzServesJSON(t *testing.T) {
	sys := newTestSystem(t)
	router := httpapi.NewRouter(sys, httpapi.Options{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["overall"])
}

func TestListTrainsEmpty(t *testing.T) {
	sys := newTestSystem(t)
	router := httpapi.NewRouter(sys, httpapi.Options{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/trains")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var trains []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trains))
	assert.Empty(t, trains)
}

func TestCloseAndOpenBlock(t *testing.T) {
	sys := newTestSystem(t)
	router := httpapi.NewRouter(sys, httpapi.Options{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/lines/Green/blocks/3/close", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/lines/Green/blocks/3/open", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)
}
