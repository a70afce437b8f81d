package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_api_requests_total",
			Help: "Total number of REST calls issued by the client.",
		},
		[]string{"method", "route", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animehub_api_request_duration_seconds",
			Help:    "REST call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	pushConnected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animehub_push_connected",
			Help: "Whether the push channel is connected (1) or not (0).",
		},
		[]string{"transport"},
	)
	pushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_push_events_total",
			Help: "Total number of push channel events.",
		},
		[]string{"transport", "event"},
	)
	pushMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_push_messages_total",
			Help: "Push-delivered messages by controller outcome.",
		},
		[]string{"outcome"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "animehub_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		apiRequestsTotal,
		apiRequestDuration,
		pushConnected,
		pushEventsTotal,
		pushMessagesTotal,
		amqpPublishErrorsTotal,
	)
}

// MetricsHandler exposes the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObserveAPIRequest records one REST call. status is 0 when no response arrived.
func ObserveAPIRequest(method, route string, status int, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func SetPushConnected(transport string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	pushConnected.WithLabelValues(transport).Set(v)
}

func IncPushEvent(transport, event string) {
	pushEventsTotal.WithLabelValues(transport, event).Inc()
}

func IncPushMessage(outcome string) {
	pushMessagesTotal.WithLabelValues(outcome).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
