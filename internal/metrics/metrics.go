package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"Crew_Community/internal/pkg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry 本服务自己的 collector，不使用全局默认注册表
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crew",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crew",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "crew",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crew",
			Subsystem: "membership",
			Name:      "transitions_total",
			Help:      "Crew lifecycle transitions by outcome.",
		},
		[]string{"transition", "result"},
	)

	outboxDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crew",
			Subsystem: "outbox",
			Name:      "deliveries_total",
			Help:      "Crew outbox delivery attempts.",
		},
		[]string{"success"},
	)

	reconcileFixes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "crew",
			Subsystem: "reconcile",
			Name:      "member_count_fixes_total",
			Help:      "Crews whose member count was corrected by the reconciler.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transitions,
		outboxDeliveries,
		reconcileFixes,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted() func(method, path string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, path string, status int) {
		httpInFlight.Dec()
		if path == "" {
			path = "unmatched"
		}
		method = strings.ToUpper(method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition result 为 ok、业务错误类别或 error
func RecordTransition(name string, err error) {
	transitions.WithLabelValues(name, resultLabel(err)).Inc()
}

func RecordOutboxDelivery(success bool) {
	outboxDeliveries.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func RecordReconcileFix() {
	reconcileFixes.Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch pkg.KindOf(err) {
	case pkg.KindNotFound:
		return "not_found"
	case pkg.KindForbidden:
		return "forbidden"
	case pkg.KindValidation:
		return "validation"
	case pkg.KindConflict:
		return "conflict"
	case pkg.KindCreatorProtected:
		return "creator_protected"
	default:
		return "error"
	}
}
