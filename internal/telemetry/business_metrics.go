package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BusinessMetrics holds Prometheus metrics for invoicing observability.
// Order metrics are labelled by module so dashboards can split pharmacy,
// hospital and insurance traffic.
type BusinessMetrics struct {
	// Orders
	OrdersCreated  *prometheus.CounterVec
	OrderAmount    *prometheus.CounterVec
	OrderTaxes     *prometheus.CounterVec
	OrderItemCount *prometheus.HistogramVec
	OrdersRejected *prometheus.CounterVec

	// Invoices
	InvoicesRendered      prometheus.Counter
	InvoiceRenderFailures *prometheus.CounterVec
	InvoiceRenderDuration prometheus.Histogram

	// Reports
	ReportQueries *prometheus.CounterVec
	ReportRows    *prometheus.HistogramVec
	ReportCache   *prometheus.CounterVec

	// Events
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec

	// Background jobs
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
}

// NewBusinessMetrics creates the metrics and registers them with reg. A nil
// reg registers with the default Prometheus registry.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "taxsim"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Orders
		// =======================================================================
		OrdersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders persisted, by the module of their first item",
			},
			[]string{"module"},
		),
		OrderAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_amount_total",
				Help:      "Sum of order totals including tax",
			},
			[]string{"module"},
		),
		OrderTaxes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_taxes_total",
				Help:      "Sum of taxes applied",
			},
			[]string{"module"},
		),
		OrderItemCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of line items per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
			},
			[]string{"module"},
		),
		OrdersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_rejected_total",
				Help:      "Orders rejected before persistence",
			},
			[]string{"reason"}, // reason: validation, pricing
		),

		// =======================================================================
		// Invoices
		// =======================================================================
		InvoicesRendered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_rendered_total",
				Help:      "Invoices rendered and stored",
			},
		),
		InvoiceRenderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_render_failures_total",
				Help:      "Invoice renders that failed or timed out",
			},
			[]string{"source"}, // source: request, reconciler
		),
		InvoiceRenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_render_duration_seconds",
				Help:      "Time to render and store an invoice",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),

		// =======================================================================
		// Reports
		// =======================================================================
		ReportQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_queries_total",
				Help:      "Report queries, by report kind and whether a date range was supplied",
			},
			[]string{"report", "ranged"},
		),
		ReportRows: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_rows",
				Help:      "Orders returned per report",
				Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
			},
			[]string{"report"},
		),
		ReportCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "report_cache_total",
				Help:      "Report cache lookups",
			},
			[]string{"result"}, // result: hit, miss, error
		),

		// =======================================================================
		// Events
		// =======================================================================
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_published_total",
				Help:      "Domain events published",
			},
			[]string{"type"},
		),
		EventsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_failed_total",
				Help:      "Domain events that could not be published",
			},
			[]string{"type"},
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		JobsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_processed_total",
				Help:      "Background jobs completed",
			},
			[]string{"job"},
		),
		JobsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Background jobs that failed",
			},
			[]string{"job"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Background job duration",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"job"},
		),
	}
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}

// RecordOrder observes a persisted, priced order. Safe on a nil receiver.
func (m *BusinessMetrics) RecordOrder(module string, items int, amount, taxes decimal.Decimal) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(module).Inc()
	m.OrderAmount.WithLabelValues(module).Add(amount.InexactFloat64())
	m.OrderTaxes.WithLabelValues(module).Add(taxes.InexactFloat64())
	m.OrderItemCount.WithLabelValues(module).Observe(float64(items))
}

func (m *BusinessMetrics) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) RecordRender(seconds float64) {
	if m == nil {
		return
	}
	m.InvoicesRendered.Inc()
	m.InvoiceRenderDuration.Observe(seconds)
}

func (m *BusinessMetrics) RecordRenderFailure(source string) {
	if m == nil {
		return
	}
	m.InvoiceRenderFailures.WithLabelValues(source).Inc()
}

func (m *BusinessMetrics) RecordReport(report string, ranged bool, rows int) {
	if m == nil {
		return
	}
	r := "false"
	if ranged {
		r = "true"
	}
	m.ReportQueries.WithLabelValues(report, r).Inc()
	m.ReportRows.WithLabelValues(report).Observe(float64(rows))
}

func (m *BusinessMetrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.ReportCache.WithLabelValues(result).Inc()
}

func (m *BusinessMetrics) RecordEvent(eventType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.EventsFailed.WithLabelValues(eventType).Inc()
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordJob observes one run of a background job.
func (m *BusinessMetrics) RecordJob(job string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(job).Observe(seconds)
	if err != nil {
		m.JobsFailed.WithLabelValues(job).Inc()
		return
	}
	m.JobsProcessed.WithLabelValues(job).Inc()
}
