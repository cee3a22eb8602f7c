package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordJob(t *testing.T) {
	m := NewMetrics()

	m.RecordJob("ai", "embed", nil, 10*time.Millisecond)
	m.RecordJob("ai", "embed", errors.New("gateway down"), 10*time.Millisecond)
	m.RecordJob("ai", "embed", nil, 10*time.Millisecond)
	m.RecordDeadLetter("ai", "embed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobs.WithLabelValues("ai", "embed", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("ai", "embed", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("ai", "embed", "dead")))
}

func TestMetricsSweepAndEscalation(t *testing.T) {
	m := NewMetrics()

	m.RecordSweep(3, 1, time.Second)
	m.RecordSweep(2, 0, time.Second)
	m.RecordEscalation("DIRECTOR", true)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.sweepEscal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.escalations.WithLabelValues("DIRECTOR", "true")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/tickets", "POST", 201, time.Millisecond)
		m.RecordJob("ocr", "ocr", nil, time.Millisecond)
		m.RecordSweep(1, 0, time.Millisecond)
		m.RecordEscalation("HOD", false)
	})
}
