package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Allocation metrics
	PaymentsReceived    *prometheus.CounterVec
	PaymentAmount       prometheus.Histogram
	AllocationDuration  prometheus.Histogram
	ObligationsSettled  *prometheus.CounterVec
	UnappliedRemainders *prometheus.CounterVec
	AllocationConflicts prometheus.Counter
	AllocationErrors    *prometheus.CounterVec

	// Ledger metrics
	EntriesRecorded    *prometheus.CounterVec
	ObligationsCreated *prometheus.CounterVec

	// Shift metrics
	ShiftsOpened  prometheus.Counter
	ShiftsClosed  *prometheus.CounterVec
	ShiftVariance prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates metrics registered on reg
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Allocation metrics
		PaymentsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_payments_received_total",
				Help: "Total payments received by obligation kind",
			},
			[]string{"kind"},
		),
		PaymentAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnishop_payment_amount",
			Help:    "Payment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		AllocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnishop_allocation_duration_seconds",
			Help:    "Duration of payment allocation",
			Buckets: prometheus.DefBuckets,
		}),
		ObligationsSettled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_obligations_settled_total",
				Help: "Total obligations that reached paid status",
			},
			[]string{"kind"},
		),
		UnappliedRemainders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_unapplied_remainders_total",
				Help: "Total payments that left an unapplied remainder",
			},
			[]string{"kind"},
		),
		AllocationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "omnishop_allocation_conflicts_total",
			Help: "Total optimistic version conflicts during allocation",
		}),
		AllocationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_allocation_errors_total",
				Help: "Total allocation errors by type",
			},
			[]string{"error_type"},
		),

		// Ledger metrics
		EntriesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_ledger_entries_total",
				Help: "Total ledger entries recorded by category",
			},
			[]string{"category"},
		),
		ObligationsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_obligations_created_total",
				Help: "Total obligations created by kind",
			},
			[]string{"kind"},
		),

		// Shift metrics
		ShiftsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "omnishop_shifts_opened_total",
			Help: "Total cash shifts opened",
		}),
		ShiftsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_shifts_closed_total",
				Help: "Total cash shifts closed by variance status",
			},
			[]string{"variance_status"},
		),
		ShiftVariance: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnishop_shift_variance_abs",
			Help:    "Absolute cash variance at shift close",
			Buckets: []float64{0.01, 1, 5, 10, 50, 100, 500, 1000},
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omnishop_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omnishop_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "omnishop_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "omnishop_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Outbox metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "omnishop_outbox_events_published_total",
				Help: "Total outbox events published by status",
			},
			[]string{"event_type", "status"},
		),
	}
}
