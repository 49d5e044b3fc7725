package realtime

import "github.com/prometheus/client_golang/prometheus"

var eventsDroppedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Total number of change events dropped for slow subscribers",
	},
)

// RegisterMetrics は変更フィードのメトリクスをレジストリに登録する。
func RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(eventsDroppedTotal)
}
