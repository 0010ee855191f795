package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookNotificationsTotal)
}

var webhookNotificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Webhook notifications by processing outcome (applied/noop/duplicate/out_of_order/auth_failed/unmatched/unknown_status/malformed).",
	},
	[]string{"outcome"},
)

func IncWebhook(outcome string) {
	webhookNotificationsTotal.WithLabelValues(norm(outcome)).Inc()
}
