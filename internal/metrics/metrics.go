package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/pos-helpdesk/internal/core/events"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos_helpdesk"

type Metrics struct {
	registry *prometheus.Registry

	TicketEvents  *prometheus.CounterVec
	Alerts        *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	PermissionHit *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TicketEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_events_total",
			Help:      "Ticket lifecycle events by type",
		}, []string{"type"}),
		Alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alert delivery attempts by platform and outcome",
		}, []string{"platform", "outcome"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		PermissionHit: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permission_cache_lookups_total",
			Help:      "Permission cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Subscribe counts ticket and alert events published on the bus.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	for _, eventType := range events.TicketEventTypes {
		bus.Subscribe(eventType, m.onTicketEvent)
	}
	bus.Subscribe(events.EventTypeAlertSent, m.onAlertEvent)
	bus.Subscribe(events.EventTypeAlertFailed, m.onAlertEvent)
}

func (m *Metrics) onTicketEvent(_ context.Context, event events.Event) error {
	m.TicketEvents.WithLabelValues(event.EventType()).Inc()
	return nil
}

func (m *Metrics) onAlertEvent(_ context.Context, event events.Event) error {
	platform := "unknown"
	if e, ok := event.(*events.AlertEvent); ok {
		platform = e.Platform
	}
	outcome := "sent"
	if event.EventType() == events.EventTypeAlertFailed {
		outcome = "failed"
	}
	m.Alerts.WithLabelValues(platform, outcome).Inc()
	return nil
}

// ObservePermissionCache records a permission cache hit or miss.
func (m *Metrics) ObservePermissionCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PermissionHit.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so ids in the path do not blow up the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
