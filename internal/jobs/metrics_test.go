package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("reports:export").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("reports:export").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:export", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:export", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:export")))
}

func TestAddExportDefaultsKind(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddExport("", "done")
	m.AddExport("users", "empty")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("unknown", "done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("users", "empty")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddExport("full", "done")
	assert.NoError(t, m.Track("x").End(nil))
}
