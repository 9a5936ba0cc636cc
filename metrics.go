package concord

import "github.com/prometheus/client_golang/prometheus"

var (
	concordEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_events_total",
			Help: "Count of gateway events received",
		},
		[]string{"shard"},
	)

	concordDispatchEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_dispatch_events_by_type_total",
			Help: "Count of dispatch events by type",
		},
		[]string{"shard", "type"},
	)

	concordDiscardedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_events_discarded_total",
			Help: "Count of malformed gateway events dropped",
		},
		[]string{"shard"},
	)

	concordGatewayLatency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "concord_gateway_latency_ms",
			Help: "Heartbeat round trip time in milliseconds",
		},
		[]string{"shard"},
	)

	concordShardReconnectCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concord_shard_reconnects_total",
			Help: "Count of shard reconnects",
		},
		[]string{"shard"},
	)

	concordStateGuildCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concord_state_guild_count",
			Help: "Guilds held in state",
		},
	)

	concordStateMemberCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concord_state_member_count",
			Help: "Guild members held in state",
		},
	)

	concordStateChannelCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concord_state_channel_count",
			Help: "Guild channels held in state",
		},
	)

	concordStateRoleCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concord_state_role_count",
			Help: "Guild roles held in state",
		},
	)

	concordStateUserCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concord_state_user_count",
			Help: "Users held in state",
		},
	)
)
