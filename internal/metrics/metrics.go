// Package metrics holds the Prometheus collectors of the caching layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values shared by callers.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultRetry   = "retry"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheProbes      *prometheus.CounterVec
	downloadAttempts *prometheus.CounterVec
	dedupJoins       prometheus.Counter
	downloadedBytes  prometheus.Counter
	proxiedBytes     prometheus.Counter
	tasks            prometheus.Gauge
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheProbes: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tunestash_cache_probes_total", Help: "Cache probes by asset kind and result"},
			[]string{"kind", "result"},
		),
		downloadAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tunestash_download_attempts_total", Help: "Background download attempts"},
			[]string{"result"},
		),
		dedupJoins: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tunestash_download_dedup_joins_total", Help: "Callers joined to an in-flight download"},
		),
		downloadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tunestash_downloaded_bytes_total", Help: "Bytes persisted by background downloads"},
		),
		proxiedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "tunestash_proxied_bytes_total", Help: "Bytes relayed to clients by the live proxy"},
		),
		tasks: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "tunestash_tasks", Help: "Tasks currently held by the registry"},
		),
	}

	registerer.MustRegister(
		m.cacheProbes,
		m.downloadAttempts,
		m.dedupJoins,
		m.downloadedBytes,
		m.proxiedBytes,
		m.tasks,
	)

	return m
}

// ObserveProbe counts a cache probe.
func (m *Metrics) ObserveProbe(kind string, hit bool) {
	if m == nil {
		return
	}

	result := ResultMiss
	if hit {
		result = ResultHit
	}

	m.cacheProbes.WithLabelValues(kind, result).Inc()
}

// ObserveDownloadAttempt counts a finished download attempt.
func (m *Metrics) ObserveDownloadAttempt(result string) {
	if m == nil {
		return
	}

	m.downloadAttempts.WithLabelValues(result).Inc()
}

// ObserveDedupJoin counts a caller that joined an existing download.
func (m *Metrics) ObserveDedupJoin() {
	if m == nil {
		return
	}

	m.dedupJoins.Inc()
}

// AddDownloadedBytes adds persisted bytes.
func (m *Metrics) AddDownloadedBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}

	m.downloadedBytes.Add(float64(n))
}

// AddProxiedBytes adds bytes relayed to clients.
func (m *Metrics) AddProxiedBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}

	m.proxiedBytes.Add(float64(n))
}

// SetTasks sets the registry size.
func (m *Metrics) SetTasks(n int) {
	if m == nil {
		return
	}

	m.tasks.Set(float64(n))
}
