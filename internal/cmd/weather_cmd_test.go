package cmd

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/wardrobe/internal/weather"
)

// weatherServer answers like OpenWeatherMap while up is true and with a
// 502 otherwise.
func weatherServer(t *testing.T, up *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"upstream down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"name":"Oslo","weather":[{"main":"Snow","description":"light snow","icon":"13d"}],
			"main":{"temp":-4,"feels_like":-9,"humidity":90}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWeatherCmd_ServesLastGoodReportAcrossRuns(t *testing.T) {
	isolate(t)
	t.Setenv("WARDROBE_WEATHER_API_KEY", "k")

	var up atomic.Bool
	up.Store(true)
	srv := weatherServer(t, &up)
	mustRun(t, "config", "set", "weather.base_url", srv.URL)

	r := run(t, "", "weather", "Oslo", "--json")
	require.NoError(t, r.err, r.stderr)
	var fresh weather.Report
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &fresh))
	assert.InDelta(t, -4.0, fresh.TempC, 1e-9)
	assert.False(t, fresh.Stale)

	up.Store(false)

	r = run(t, "", "weather", "Oslo", "--json")
	require.NoError(t, r.err)
	assert.NotContains(t, r.stderr, "Warning")
	var stale weather.Report
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &stale))
	assert.True(t, stale.Stale)
	assert.InDelta(t, -4.0, stale.TempC, 1e-9)
	assert.Equal(t, "Snow", stale.Condition)

	seedBasics(t)
	r = run(t, "", "suggest", "--city", "Oslo")
	require.NoError(t, r.err)
	assert.NotContains(t, r.stderr, "weather unavailable")
	assert.Contains(t, r.stdout, "Snow -4°C")
	assert.Contains(t, r.stdout, "[cached]")

	r = run(t, "", "weather", "Bergen", "--json")
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "Warning")
}
