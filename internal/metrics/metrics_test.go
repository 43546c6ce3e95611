package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	appMetrics.Rows.WithLabelValues("geocode", "collected").Inc()
	appMetrics.Rows.WithLabelValues("geocode", "collected").Inc()
	appMetrics.APIRequests.WithLabelValues("geocode", "ok").Inc()
	appMetrics.BatchItems.Set(3)

	assert.InDelta(t, 2, testutil.ToFloat64(appMetrics.Rows.WithLabelValues("geocode", "collected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.APIRequests.WithLabelValues("geocode", "ok")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(appMetrics.BatchItems), 0)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)
	appMetrics.Rows.WithLabelValues("fuzzy", "skipped").Inc()

	path := filepath.Join(t.TempDir(), "waypoint.prom")

	require.NoError(t, metrics.WriteTextfile(path, reg))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `waypoint_rows_total{mode="fuzzy",status="skipped"} 1`)
}

func TestWriteTextfile_BadDirectory(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewMetrics(reg)

	err := metrics.WriteTextfile(filepath.Join(t.TempDir(), "missing", "waypoint.prom"), reg)

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to write metrics textfile")
}
