// metrics — доменные и HTTP-метрики Prometheus.
// Все методы безопасны для nil-получателя: сервис и тесты могут работать без метрик.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "news_cms"

// Metrics — набор коллекторов сервиса.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	newsCreated     prometheus.Counter
	newsDeleted     prometheus.Counter
	uploadsStored   prometheus.Counter
	uploadsRejected *prometheus.CounterVec
	listCache       *prometheus.CounterVec
}

// New создает коллекторы и регистрирует их в reg.
// reg == nil — регистрация в prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		newsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_created_total",
			Help:      "News items persisted.",
		}),
		newsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_deleted_total",
			Help:      "News items deleted.",
		}),
		uploadsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_stored_total",
			Help:      "Files written to upload storage.",
		}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Uploads rejected before or during storing, by reason.",
		}, []string{"reason"}),
		listCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_cache_lookups_total",
			Help:      "List page cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.newsCreated,
		m.newsDeleted,
		m.uploadsStored,
		m.uploadsRejected,
		m.listCache,
	)

	return m
}

// ObserveHTTP учитывает завершённый HTTP-запрос.
func (m *Metrics) ObserveHTTP(method, route, code string, d time.Duration) {
	if m == nil {
		return
	}

	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) NewsCreated() {
	if m == nil {
		return
	}
	m.newsCreated.Inc()
}

func (m *Metrics) NewsDeleted() {
	if m == nil {
		return
	}
	m.newsDeleted.Inc()
}

func (m *Metrics) UploadStored() {
	if m == nil {
		return
	}
	m.uploadsStored.Inc()
}

// UploadRejected — reason: too_large, no_file, unsupported_media_type, storage.
func (m *Metrics) UploadRejected(reason string) {
	if m == nil {
		return
	}
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

// ListCache — result: hit, miss, error.
func (m *Metrics) ListCache(result string) {
	if m == nil {
		return
	}
	m.listCache.WithLabelValues(result).Inc()
}
