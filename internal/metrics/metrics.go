// Package metrics records operation timings and graph size behind a small
// Recorder interface. The default recorder discards everything; Init swaps in
// the Prometheus recorder and its exporter.
package metrics

import (
	"os"
	"sync"
	"time"
)

// Layer names the surface an operation was observed at.
type Layer string

const (
	LayerStore Layer = "store"
	LayerTool  Layer = "tool"
	LayerHTTP  Layer = "http"
)

// Recorder defines the metrics surface used across the codebase.
type Recorder interface {
	ObserveOp(layer Layer, op string, success bool, seconds float64)
	ObserveGraphSize(project string, entities, relations int)
	AddSkippedRecords(project string, n int)
	IncSaveFailure(project string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOp(Layer, string, bool, float64) {}
func (noopRecorder) ObserveGraphSize(string, int, int)      {}
func (noopRecorder) AddSkippedRecords(string, int)          {}
func (noopRecorder) IncSaveFailure(string)                  {}

var (
	recMu    sync.RWMutex
	recorder Recorder = noopRecorder{}
	initOnce sync.Once
)

// Default returns the current recorder.
func Default() Recorder {
	recMu.RLock()
	defer recMu.RUnlock()
	return recorder
}

// SetRecorder swaps the global recorder implementation. A nil r restores the no-op recorder.
func SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	recMu.Lock()
	defer recMu.Unlock()
	recorder = r
}

func timer(layer Layer, op string) func(success bool) {
	start := time.Now()
	return func(success bool) {
		Default().ObserveOp(layer, op, success, time.Since(start).Seconds())
	}
}

// TimeOp times a store operation.
func TimeOp(op string) func(success bool) { return timer(LayerStore, op) }

// TimeTool times an MCP tool handler.
func TimeTool(tool string) func(success bool) { return timer(LayerTool, tool) }

// TimeHTTP times an HTTP API route.
func TimeHTTP(route string) func(success bool) { return timer(LayerHTTP, route) }

// InitFromEnv calls Init when METRICS_PROMETHEUS is set, listening on METRICS_ADDR.
func InitFromEnv() {
	if os.Getenv("METRICS_PROMETHEUS") == "" {
		return
	}
	Init(os.Getenv("METRICS_ADDR"))
}

// Init installs the Prometheus recorder and serves /metrics and /healthz on
// addr (default :9090). Only the first call has any effect.
func Init(addr string) {
	if addr == "" {
		addr = ":9090"
	}
	initOnce.Do(func() {
		_ = enablePrometheus(addr)
	})
}
