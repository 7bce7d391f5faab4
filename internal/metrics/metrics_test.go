package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	layer   Layer
	op      string
	success bool
}

type fakeRecorder struct {
	mu       sync.Mutex
	ops      []observed
	sizes    map[string][2]int
	skipped  map[string]int
	failures map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{sizes: map[string][2]int{}, skipped: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeRecorder) ObserveOp(layer Layer, op string, success bool, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, observed{layer, op, success})
}

func (f *fakeRecorder) ObserveGraphSize(project string, entities, relations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes[project] = [2]int{entities, relations}
}

func (f *fakeRecorder) AddSkippedRecords(project string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped[project] += n
}

func (f *fakeRecorder) IncSaveFailure(project string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[project]++
}

func TestTimersReportLayer(t *testing.T) {
	rec := newFakeRecorder()
	SetRecorder(rec)
	t.Cleanup(func() { SetRecorder(nil) })

	TimeOp("db_create_entities")(true)
	TimeTool("search_nodes")(false)
	TimeHTTP("open_nodes")(true)

	require.Len(t, rec.ops, 3)
	assert.Equal(t, observed{LayerStore, "db_create_entities", true}, rec.ops[0])
	assert.Equal(t, observed{LayerTool, "search_nodes", false}, rec.ops[1])
	assert.Equal(t, observed{LayerHTTP, "open_nodes", true}, rec.ops[2])
}

func TestSetRecorderNilRestoresNoop(t *testing.T) {
	SetRecorder(nil)
	assert.IsType(t, noopRecorder{}, Default())
	assert.NotPanics(t, func() {
		Default().ObserveGraphSize("default", 1, 2)
		Default().IncSaveFailure("default")
	})
}
