package concord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/concord-labs/concord/discord"
	"github.com/concord-labs/concord/pkg/bucketstore"
	"github.com/concord-labs/concord/ratelimit"
)

const VERSION = "1.0.0"

const (
	GatewayURLDefault = "wss://gateway.discord.gg"
	GatewayVersion    = "10"

	PrometheusScrapeInterval = 15 * time.Second
)

// Concord is the gateway client. It owns the shards, the shared state
// cache, the REST session and the identify buckets.
type Concord struct {
	ctx    context.Context
	cancel func()

	Logger zerolog.Logger `json:"-"`

	StartTime time.Time `json:"start_time"`

	configurationMu sync.RWMutex
	Configuration   *Configuration `json:"configuration"`

	gatewayMu sync.RWMutex
	Gateway   discord.GatewayBot `json:"gateway"`

	State    *State    `json:"-"`
	Handlers *Handlers `json:"-"`

	RateLimiter *ratelimit.RateLimiter `json:"-"`
	Session     *discord.Session       `json:"-"`

	// Buckets gating how frequently shards can identify.
	IdentifyBuckets *bucketstore.BucketStore `json:"-"`

	userMu sync.RWMutex
	User   discord.User `json:"user"`

	UserID *atomic.Int64 `json:"user_id"`

	shardsMu sync.RWMutex
	Shards   map[int32]*Shard `json:"shards"`

	guildChunksMu sync.RWMutex
	guildChunks   map[discord.Snowflake]chan discord.GuildMembersChunk
}

// NewConcord creates a client from a configuration. The configuration
// is validated on Open, not here.
func NewConcord(configuration *Configuration, loggerOutput io.Writer) *Concord {
	logger := zerolog.New(loggerOutput).With().Timestamp().Logger()
	logger.Info().Msg("Creating new concord client")

	c := &Concord{
		Logger: logger,

		configurationMu: sync.RWMutex{},
		Configuration:   configuration,

		gatewayMu: sync.RWMutex{},
		Gateway:   discord.GatewayBot{},

		State:    NewState(),
		Handlers: NewHandlers(),

		RateLimiter: ratelimit.NewRateLimiter(logger),

		IdentifyBuckets: bucketstore.NewBucketStore(logger),

		userMu: sync.RWMutex{},
		User:   discord.User{},

		UserID: &atomic.Int64{},

		shardsMu: sync.RWMutex{},
		Shards:   make(map[int32]*Shard),

		guildChunksMu: sync.RWMutex{},
		guildChunks:   make(map[discord.Snowflake]chan discord.GuildMembersChunk),
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.Session = discord.NewSession(c.ctx, configuration.Token,
		ratelimit.NewInterface(discord.NewBaseInterface(), c.RateLimiter))

	return c
}

// Open fetches gateway information, spawns the shards and starts
// serving metrics. The first shard connects synchronously so a bad
// token or intents fail fast instead of leaving a half-started client.
func (c *Concord) Open() error {
	c.StartTime = time.Now().UTC()
	c.Logger.Info().Msgf("Starting concord. Version %s", VERSION)

	c.configurationMu.RLock()
	configuration := c.Configuration
	c.configurationMu.RUnlock()

	if err := configuration.Validate(); err != nil {
		return err
	}

	gateway, err := discord.GetGatewayBot(c.Session)
	if err != nil {
		if errors.Is(err, discord.ErrUnauthorized) {
			return ErrInvalidToken
		}

		return fmt.Errorf("failed to fetch gateway: %w", err)
	}

	c.gatewayMu.Lock()
	c.Gateway = *gateway
	c.gatewayMu.Unlock()

	shardCount := configuration.Sharding.ShardCount
	if shardCount <= 0 {
		shardCount = gateway.Shards
	}

	if shardCount <= 0 {
		shardCount = 1
	}

	var shardIDs []int32

	if configuration.Sharding.ShardIDs != "" {
		shardIDs = returnRangeInt32(configuration.Sharding.ShardIDs, shardCount)
	} else {
		for i := int32(0); i < shardCount; i++ {
			shardIDs = append(shardIDs, i)
		}
	}

	if len(shardIDs) == 0 {
		return ErrInvalidShardCount
	}

	c.Logger.Info().
		Int32("shardCount", shardCount).
		Int("shards", len(shardIDs)).
		Int32("remaining", gateway.SessionStartLimit.Remaining).
		Msg("Retrieved gateway information")

	c.shardsMu.Lock()
	for _, shardID := range shardIDs {
		c.Shards[shardID] = c.NewShard(shardID, shardCount)
	}

	initialShard := c.Shards[shardIDs[0]]
	c.shardsMu.Unlock()

	// Connect the first shard on the caller's goroutine so startup
	// failures surface immediately. Nothing else is started until it
	// succeeds, so a failed startup leaves no goroutines behind.
	if err = initialShard.Connect(); err != nil && !errors.Is(err, context.Canceled) {
		initialShard.Close(WebsocketReconnectCloseCode)

		return fmt.Errorf("failed to connect shard %d: %w", initialShard.ShardID, err)
	}

	if configuration.PrometheusAddress != "" {
		go c.setupPrometheus()
		go c.prometheusGatherer()
	}

	go initialShard.Open()

	c.shardsMu.RLock()
	for _, sh := range c.Shards {
		if sh.ShardID == initialShard.ShardID {
			continue
		}

		go func(sh *Shard) {
			if connectErr := sh.Connect(); connectErr != nil && !errors.Is(connectErr, context.Canceled) {
				sh.Logger.Error().Err(connectErr).Msg("Failed to connect shard")

				return
			}

			sh.Open()
		}(sh)
	}
	c.shardsMu.RUnlock()

	return nil
}

// Close gracefully closes the client. Cancelling the parent context
// supersedes any pending shard reconnect.
func (c *Concord) Close() {
	c.Logger.Info().Msg("Closing concord")

	c.cancel()

	c.shardsMu.RLock()
	for _, sh := range c.Shards {
		sh.Close(WebsocketReconnectCloseCode)
	}
	c.shardsMu.RUnlock()
}

// WaitForReady blocks until every shard has received READY.
func (c *Concord) WaitForReady() {
	c.shardsMu.RLock()
	shards := make([]*Shard, 0, len(c.Shards))

	for _, sh := range c.Shards {
		shards = append(shards, sh)
	}
	c.shardsMu.RUnlock()

	for _, sh := range shards {
		sh.WaitForReady()
	}
}

// GetShard returns the shard with the passed id, if present.
func (c *Concord) GetShard(shardID int32) (*Shard, bool) {
	c.shardsMu.RLock()
	defer c.shardsMu.RUnlock()

	sh, ok := c.Shards[shardID]

	return sh, ok
}

// ShardForGuild returns the shard a guild is allocated to.
func (c *Concord) ShardForGuild(guildID discord.Snowflake) (*Shard, bool) {
	c.shardsMu.RLock()
	defer c.shardsMu.RUnlock()

	if len(c.Shards) == 0 {
		return nil, false
	}

	var shardCount int32

	for _, sh := range c.Shards {
		shardCount = sh.ShardCount

		break
	}

	shardID := int32((int64(guildID) >> 22) % int64(shardCount))
	sh, ok := c.Shards[shardID]

	return sh, ok
}

// gatewayURL returns the base url shards dial, without query arguments.
func (c *Concord) gatewayURL() string {
	c.configurationMu.RLock()
	gatewayURL := c.Configuration.GatewayURL
	c.configurationMu.RUnlock()

	if gatewayURL == "" {
		c.gatewayMu.RLock()
		gatewayURL = c.Gateway.URL
		c.gatewayMu.RUnlock()
	}

	return replaceIfEmpty(gatewayURL, GatewayURLDefault)
}

func (c *Concord) subscribeGuildChunks(guildID discord.Snowflake) chan discord.GuildMembersChunk {
	chunkCh := make(chan discord.GuildMembersChunk, MessageChannelBuffer)

	c.guildChunksMu.Lock()
	c.guildChunks[guildID] = chunkCh
	c.guildChunksMu.Unlock()

	return chunkCh
}

func (c *Concord) unsubscribeGuildChunks(guildID discord.Snowflake) {
	c.guildChunksMu.Lock()
	delete(c.guildChunks, guildID)
	c.guildChunksMu.Unlock()
}

func (c *Concord) publishGuildChunk(chunk discord.GuildMembersChunk) {
	c.guildChunksMu.RLock()
	chunkCh, ok := c.guildChunks[chunk.GuildID]
	c.guildChunksMu.RUnlock()

	if !ok {
		return
	}

	select {
	case chunkCh <- chunk:
	default:
	}
}

var registerMetricsOnce sync.Once

// registerMetrics registers the collectors with the default registry.
// Registering twice panics, so clients sharing a process go through
// the same Once.
func registerMetrics() {
	registerMetricsOnce.Do(func() {
		prometheus.MustRegister(concordEventCount)
		prometheus.MustRegister(concordDispatchEventCount)
		prometheus.MustRegister(concordDiscardedEvents)
		prometheus.MustRegister(concordGatewayLatency)
		prometheus.MustRegister(concordShardReconnectCount)
		prometheus.MustRegister(concordStateGuildCount)
		prometheus.MustRegister(concordStateMemberCount)
		prometheus.MustRegister(concordStateChannelCount)
		prometheus.MustRegister(concordStateRoleCount)
		prometheus.MustRegister(concordStateUserCount)
	})
}

func (c *Concord) setupPrometheus() {
	c.configurationMu.RLock()
	prometheusAddress := c.Configuration.PrometheusAddress
	c.configurationMu.RUnlock()

	c.Logger.Info().Msgf("Serving prometheus at %s", prometheusAddress)

	registerMetrics()

	http.Handle("/metrics", promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{},
	))

	err := http.ListenAndServe(prometheusAddress, nil)
	if err != nil {
		c.Logger.Error().Err(err).Msg("Failed to serve prometheus server")
	}
}

func (c *Concord) prometheusGatherer() {
	t := time.NewTicker(PrometheusScrapeInterval)
	defer t.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			concordStateGuildCount.Set(float64(c.State.Guilds.Count()))
			concordStateMemberCount.Set(float64(c.State.GuildMembers.TotalCount()))
			concordStateChannelCount.Set(float64(c.State.GuildChannels.TotalCount()))
			concordStateRoleCount.Set(float64(c.State.GuildRoles.TotalCount()))
			concordStateUserCount.Set(float64(c.State.Users.Count()))

			c.shardsMu.RLock()
			for _, sh := range c.Shards {
				sent := sh.LastHeartbeatSent.Load()
				ack := sh.LastHeartbeatAck.Load()

				if !ack.Before(sent) {
					concordGatewayLatency.
						WithLabelValues(strconv.Itoa(int(sh.ShardID))).
						Set(float64(ack.Sub(sent).Milliseconds()))
				}
			}
			c.shardsMu.RUnlock()
		}
	}
}
