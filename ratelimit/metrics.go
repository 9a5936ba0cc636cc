package ratelimit

import "github.com/prometheus/client_golang/prometheus"

var bucketWaitCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "concord_ratelimit_waits_total",
		Help: "Count of REST calls that waited for bucket admission",
	},
	[]string{"bucket"},
)

func init() {
	prometheus.MustRegister(bucketWaitCount)
}
