package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/processflow/internal/domain"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec

	ordersGauge      *prometheus.GaugeVec
	stageLoadGauge   *prometheus.GaugeVec
	monthRevenue     *prometheus.GaugeVec
	orderMovesTotal  *prometheus.CounterVec
	notificationsOut *prometheus.CounterVec
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP requests that ended in a domain error, by code.",
		}, []string{"method", "path", "code"}),
		ordersGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "processflow_orders",
			Help: "Orders per tenant by state.",
		}, []string{"tenant", "state"}),
		stageLoadGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "processflow_stage_orders",
			Help: "Orders currently sitting in each stage.",
		}, []string{"tenant", "stage"}),
		monthRevenue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "processflow_month_revenue",
			Help: "Revenue of orders sold in the current calendar month.",
		}, []string{"tenant"}),
		orderMovesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processflow_order_moves_total",
			Help: "Stage moves applied to orders.",
		}, []string{"tenant", "terminal", "automatic"}),
		notificationsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processflow_notifications_total",
			Help: "Notifications created, by kind.",
		}, []string{"tenant", "kind"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration, m.httpErrorsTotal,
		m.ordersGauge, m.stageLoadGauge, m.monthRevenue, m.orderMovesTotal, m.notificationsOut,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InFlight adjusts the in-flight gauge.
func (m *Metrics) InFlight(delta float64) {
	if m == nil {
		return
	}
	m.httpInFlight.Add(delta)
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.httpErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordMove counts an applied stage move.
func (m *Metrics) RecordMove(tenantID string, terminal, automatic bool) {
	if m == nil {
		return
	}
	m.orderMovesTotal.WithLabelValues(tenantID, strconv.FormatBool(terminal), strconv.FormatBool(automatic)).Inc()
}

// RecordNotification counts a created notification.
func (m *Metrics) RecordNotification(tenantID string, kind domain.NotificationKind) {
	if m == nil {
		return
	}
	m.notificationsOut.WithLabelValues(tenantID, string(kind)).Inc()
}

// ObserveDashboard mirrors a dashboard snapshot into gauges.
func (m *Metrics) ObserveDashboard(snapshot domain.DashboardMetrics) {
	if m == nil {
		return
	}
	tenant := snapshot.TenantID
	m.ordersGauge.WithLabelValues(tenant, "total").Set(float64(snapshot.TotalOrders))
	m.ordersGauge.WithLabelValues(tenant, "active").Set(float64(snapshot.ActiveOrders))
	m.ordersGauge.WithLabelValues(tenant, "completed").Set(float64(snapshot.CompletedOrders))
	m.ordersGauge.WithLabelValues(tenant, "overdue").Set(float64(snapshot.OverdueOrders))
	revenue, _ := snapshot.MonthRevenue.Float64()
	m.monthRevenue.WithLabelValues(tenant).Set(revenue)
	m.stageLoadGauge.DeletePartialMatch(prometheus.Labels{"tenant": tenant})
	for _, b := range snapshot.Bottlenecks {
		m.stageLoadGauge.WithLabelValues(tenant, b.StageName).Set(float64(b.Count))
	}
}
