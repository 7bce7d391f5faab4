//go:build !noprom

package metrics

import (
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPromRecorder(t *testing.T) {
	p := newPromRecorder()
	p.register(prom.NewRegistry())

	p.ObserveOp(LayerStore, "db_add_observations", true, 0.002)
	p.ObserveOp(LayerStore, "db_add_observations", true, 0.004)
	p.ObserveGraphSize("default", 3, 2)
	p.ObserveGraphSize("default", 4, 2)
	p.AddSkippedRecords("default", 2)
	p.IncSaveFailure("other")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.opsTotal.WithLabelValues("store", "db_add_observations", "true")))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.graphEntities.WithLabelValues("default")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.graphRelations.WithLabelValues("default")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.skippedRecords.WithLabelValues("default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.saveFailures.WithLabelValues("other")))
}
