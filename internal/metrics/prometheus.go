//go:build !noprom

package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "memory"

type promRecorder struct {
	opsTotal       *prom.CounterVec
	opSeconds      *prom.HistogramVec
	graphEntities  *prom.GaugeVec
	graphRelations *prom.GaugeVec
	skippedRecords *prom.CounterVec
	saveFailures   *prom.CounterVec
}

func (p *promRecorder) ObserveOp(layer Layer, op string, success bool, seconds float64) {
	ok := strconv.FormatBool(success)
	p.opsTotal.WithLabelValues(string(layer), op, ok).Inc()
	p.opSeconds.WithLabelValues(string(layer), op, ok).Observe(seconds)
}

func (p *promRecorder) ObserveGraphSize(project string, entities, relations int) {
	p.graphEntities.WithLabelValues(project).Set(float64(entities))
	p.graphRelations.WithLabelValues(project).Set(float64(relations))
}

func (p *promRecorder) AddSkippedRecords(project string, n int) {
	p.skippedRecords.WithLabelValues(project).Add(float64(n))
}

func (p *promRecorder) IncSaveFailure(project string) {
	p.saveFailures.WithLabelValues(project).Inc()
}

func newPromRecorder() *promRecorder {
	opLabels := []string{"layer", "op", "success"}
	return &promRecorder{
		opsTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "ops_total",
			Help:      "Operations served, by layer (store, tool, http)",
		}, opLabels),
		opSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "op_seconds",
			Help:      "Operation duration in seconds",
			Buckets:   prom.ExponentialBuckets(0.0001, 4, 10),
		}, opLabels),
		graphEntities: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_entities",
			Help:      "Entities currently held per project",
		}, []string{"project"}),
		graphRelations: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_relations",
			Help:      "Relations currently held per project",
		}, []string{"project"}),
		skippedRecords: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "graph_file_skipped_records_total",
			Help:      "Malformed lines skipped while loading graph files",
		}, []string{"project"}),
		saveFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "graph_file_save_failures_total",
			Help:      "Graph file saves that failed after an in-memory mutation",
		}, []string{"project"}),
	}
}

func (p *promRecorder) register(reg prom.Registerer) {
	reg.MustRegister(
		p.opsTotal, p.opSeconds,
		p.graphEntities, p.graphRelations,
		p.skippedRecords, p.saveFailures,
	)
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := newPromRecorder()
	p.register(registry)
	SetRecorder(p)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return nil
}
