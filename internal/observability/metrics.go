package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "impactor"

// Metrics holds the Prometheus collectors for the API, the NeoWs client and
// the catalog ingestion pipeline.
type Metrics struct {
	Simulations        *prometheus.CounterVec   // labels: endpoint, outcome={success,invalid,error}
	SimulationSeverity *prometheus.CounterVec   // labels: severity
	HTTPDuration       *prometheus.HistogramVec // labels: method, route, status

	NEORequests        *prometheus.CounterVec   // labels: endpoint={feed,lookup}, outcome={success,error,not_found}
	NEORequestDuration *prometheus.HistogramVec // labels: endpoint
	NEOFallbacks       *prometheus.CounterVec   // labels: stage={simple,sample}

	IngestedAsteroids *prometheus.CounterVec // labels: result={stored,skipped,failed}
	HazardAlerts      prometheus.Counter
	StreamSubscribers prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting registers on a throwaway registry so repeated calls do
// not panic with "already registered".
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Impact simulations by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		SimulationSeverity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_severity_total",
			Help:      "Successful simulations by severity class.",
		}, []string{"severity"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 15},
		}, []string{"method", "route", "status"}),
		NEORequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neo_requests_total",
			Help:      "NASA NeoWs requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		NEORequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "neo_request_duration_seconds",
			Help:      "NASA NeoWs request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"endpoint"}),
		NEOFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "neo_fallbacks_total",
			Help:      "Times the upcoming-asteroid listing fell back to a weaker source.",
		}, []string{"stage"}),
		IngestedAsteroids: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_asteroids_total",
			Help:      "Close approaches processed by the catalog poller.",
		}, []string{"result"}),
		HazardAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_alerts_total",
			Help:      "Hazard alerts emitted for newly stored hazardous approaches.",
		}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_subscribers",
			Help:      "Open hazard stream subscriptions (SSE and gRPC).",
		}),
	}

	reg.MustRegister(
		m.Simulations,
		m.SimulationSeverity,
		m.HTTPDuration,
		m.NEORequests,
		m.NEORequestDuration,
		m.NEOFallbacks,
		m.IngestedAsteroids,
		m.HazardAlerts,
		m.StreamSubscribers,
	)

	return m
}
