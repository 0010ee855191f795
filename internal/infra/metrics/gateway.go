package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(gatewayRequestsTotal)
}

var gatewayRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "acquirer_requests_total",
		Help: "Acquirer API calls by operation (create/cancel/fetch) and outcome.",
	},
	[]string{"operation", "outcome"},
)

func ObserveGateway(operation, outcome string) {
	gatewayRequestsTotal.WithLabelValues(norm(operation), norm(outcome)).Inc()
}
