package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени занял вызов бэкенда
	RequestDuration *prometheus.HistogramVec

	// Errors: transport, timeout, backend, decode
	ErrorTotal *prometheus.CounterVec

	// Saturation: сколько запросов сейчас в полете
	InFlight prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blaxing_backend_request_duration_seconds",
			Help:    "Histogram of backend call latencies.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"op", "status"}),

		ErrorTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "blaxing_backend_errors_total",
			Help: "Total number of failed backend calls by kind.",
		}, []string{"op", "kind"}),

		InFlight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "blaxing_backend_requests_in_flight",
			Help: "Backend calls currently in flight.",
		}),
	}
}
