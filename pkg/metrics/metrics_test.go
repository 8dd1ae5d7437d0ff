package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCommit(t *testing.T) {
	m := New("clinic", prometheus.NewRegistry())

	m.ObserveCommit(ResultSuccess, 0.01)
	m.ObserveCommit(ResultConflict, 0.02)
	m.ObserveCommit(ResultConflict, 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingCommits.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingCommits.WithLabelValues(ResultConflict)))
}

func TestObserveDB(t *testing.T) {
	m := New("clinic", prometheus.NewRegistry())

	m.ObserveDB("claim_outbox", nil)
	m.ObserveDB("claim_outbox", errors.New("timeout"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("claim_outbox", ResultError)))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCommit(ResultSuccess, 1)
		m.ObserveSlotQuery(ResultSuccess)
		m.ObserveDB("x", nil)
	})
}
