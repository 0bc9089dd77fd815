package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Admission metrics
	WithdrawalsAdmitted prometheus.Counter
	WithdrawalsRefused  prometheus.Counter
	AdmissionDuration   prometheus.Histogram

	// Deposit routing metrics
	DepositsRouted  prometheus.Counter
	RoutingFailures prometheus.Counter

	// Pool metrics
	PoolCreated prometheus.Counter
	PoolDepth   prometheus.Gauge
	Transitions *prometheus.CounterVec

	// Dealer metrics
	DealersCreated    prometheus.Counter
	DealerBalance     *prometheus.GaugeVec
	DealersPassivated prometheus.Counter
	ManualAdjustments prometheus.Counter

	// Notifier metrics
	EventsPublished prometheus.Counter
	EventsFailed    prometheus.Counter

	// Database metrics
	DBQueries  *prometheus.CounterVec
	DBDuration *prometheus.HistogramVec
	DBErrors   *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		WithdrawalsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_withdrawals_admitted_total",
			Help: "Withdrawal requests that passed the admission guard",
		}),
		WithdrawalsRefused: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_withdrawals_refused_total",
			Help: "Withdrawal requests refused for insufficient funds",
		}),
		AdmissionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealerpool_admission_duration_seconds",
			Help:    "Duration of withdrawal admission including the dealer lock",
			Buckets: prometheus.DefBuckets,
		}),

		DepositsRouted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_deposits_routed_total",
			Help: "Deposits matched to an eligible funding channel",
		}),
		RoutingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_deposit_routing_failures_total",
			Help: "Deposit requests with no eligible account",
		}),

		PoolCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_pool_created_total",
			Help: "Masterless withdrawals placed in the assignment pool",
		}),
		PoolDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "dealerpool_pool_depth",
			Help: "Transactions currently awaiting assignment",
		}),
		Transitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealerpool_transitions_total",
				Help: "Status transitions by action",
			},
			[]string{"action"},
		),

		DealersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_dealers_created_total",
			Help: "Dealers onboarded",
		}),
		DealerBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dealerpool_dealer_balance",
				Help: "Current dealer net balance",
			},
			[]string{"dealer_id"},
		),
		DealersPassivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_dealers_passivated_total",
			Help: "Dealers auto-passivated by ceiling breach",
		}),
		ManualAdjustments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_manual_adjustments_total",
			Help: "Manual credit/debit adjustments applied",
		}),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_events_published_total",
			Help: "Outbox events delivered to the notifier",
		}),
		EventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dealerpool_events_failed_total",
			Help: "Outbox events that failed delivery",
		}),

		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealerpool_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dealerpool_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dealerpool_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),
	}
}
