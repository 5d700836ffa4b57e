// Package metrics registers the engine's Prometheus instruments:
//   - trainer_advances_total: chart advances committed
//   - trainer_trades_total{side}: executed trades by side
//   - trainer_auto_exits_total{reason}: automatic liquidations by reason
//
// Served by main at /metrics when a listen address is configured.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Advances = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trainer_advances_total",
			Help: "Chart advances committed",
		},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainer_trades_total",
			Help: "Executed trades",
		},
		[]string{"side"},
	)

	AutoExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainer_auto_exits_total",
			Help: "Automatic liquidations by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(Advances, Trades, AutoExits)
}
