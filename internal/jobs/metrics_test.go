package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("purchase:cache:bump").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("purchase:cache:bump").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("purchase:cache:bump", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("purchase:cache:bump", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("purchase:cache:bump")))
}

func TestAddWarmed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddWarmed("1000", 10)
	m.AddWarmed("1000", 0)
	m.AddWarmed("", 2)
	require.Equal(t, 10.0, testutil.ToFloat64(m.warmed.WithLabelValues("1000")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.warmed.WithLabelValues("unknown")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddWarmed("1000", 1)
	require.NoError(t, m.Track("job").End(nil))
}
