package dispatcher

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Total number of push delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	dispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_dispatch_duration_seconds",
			Help:    "Time taken to fan out one notification to all subscriptions",
			Buckets: prometheus.DefBuckets,
		},
	)

	subscriptionsPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "push_subscriptions_pruned_total",
			Help: "Total number of subscriptions deleted after a gone response",
		},
	)

	dispatchFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "push_dispatch_failures_total",
			Help: "Total number of dispatch calls that could not load subscriptions",
		},
	)
)

// RegisterMetrics は配信メトリクスをレジストリに登録する。
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{deliveriesTotal, dispatchDuration, subscriptionsPrunedTotal, dispatchFailuresTotal} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
