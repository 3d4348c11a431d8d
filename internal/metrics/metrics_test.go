package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RowsIngested.WithLabelValues("rooms").Add(3)
	m.RowsRejected.WithLabelValues("missing_floor").Inc()
	m.ObserveIndexBuild(time.Now(), 42)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsIngested.WithLabelValues("rooms")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.Rooms))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["directory_rows_ingested_total"])
	assert.True(t, names["directory_index_build_seconds"])
}

func TestObserveIndexBuild_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveIndexBuild(time.Now(), 1) })
}
