package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	uploadedBytes prometheus.Counter
	orphansSwept  prometheus.Counter
}

// NewMetrics registers the ledger collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "donasi",
			Name:      "ledger_operations_total",
			Help:      "Ledger operations by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		uploadedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "donasi",
			Name:      "proof_uploaded_bytes_total",
			Help:      "Bytes of proof images written to the blob store.",
		}),
		orphansSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "donasi",
			Name:      "proof_orphans_swept_total",
			Help:      "Orphaned proof images removed by the sweeper.",
		}),
	}
}

// ObserveOperation counts one ledger operation. A nil receiver is a no-op.
func (m *Metrics) ObserveOperation(collection, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(collection, op, result).Inc()
}

// ObserveUpload adds n uploaded bytes.
func (m *Metrics) ObserveUpload(n int) {
	if m == nil {
		return
	}
	m.uploadedBytes.Add(float64(n))
}

// ObserveSweep adds n removed orphans.
func (m *Metrics) ObserveSweep(n int) {
	if m == nil {
		return
	}
	m.orphansSwept.Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Operations exposes the operation counter for tests.
func (m *Metrics) Operations() *prometheus.CounterVec {
	return m.operations
}
