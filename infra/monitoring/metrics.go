package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Orders accepted by the matching engine",
		},
		[]string{"side"},
	)

	OrdersRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Orders rejected by validation",
		},
	)

	TradesExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trades_executed_total",
			Help: "Trades produced by matching",
		},
	)

	VolumeTraded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "volume_traded_total",
			Help: "Total quantity filled across all trades",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method and route",
		},
		[]string{"method", "route"},
	)
)

func Init() {
	prometheus.MustRegister(OrdersSubmitted)
	prometheus.MustRegister(OrdersRejected)
	prometheus.MustRegister(TradesExecuted)
	prometheus.MustRegister(VolumeTraded)
	prometheus.MustRegister(HTTPRequests)
}
