package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentTransitionsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status reached (pending/succeeded/canceled/failed/...).",
		},
		[]string{"status"},
	)

	paymentTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Committed status transitions by new status and reason.",
		},
		[]string{"status", "reason"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncTransition(status, reason string) {
	paymentTransitionsTotal.WithLabelValues(norm(status), norm(reason)).Inc()
}
