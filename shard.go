package concord

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/WelcomerTeam/czlib"
	csmap "github.com/mhmtszr/concurrent-swiss-map"
	"github.com/rs/zerolog"
	gotils_strconv "github.com/savsgio/gotils/strconv"
	"go.uber.org/atomic"
	"nhooyr.io/websocket"

	"github.com/concord-labs/concord/concordjson"
	"github.com/concord-labs/concord/discord"
	"github.com/concord-labs/concord/pkg/limiter"
)

const (
	WebsocketReadLimit          = 512 << 20
	WebsocketReconnectCloseCode = websocket.StatusCode(4000)

	MessageChannelBuffer = 64

	ShardWSRateLimit      = 110
	GatewayLargeThreshold = 250

	// Backoff before a reconnect attempt. Ordinary closures wait the
	// shorter interval, abnormal terminations the longer one.
	ReconnectBackoff         = 10 * time.Second
	AbnormalReconnectBackoff = 20 * time.Second

	// Outbound frames drain from the write queue one per tick.
	WriteQueueDrainInterval = 600 * time.Millisecond
	WriteQueueBuffer        = 64

	FirstEventTimeout = 5 * time.Second

	WaitForReadyTimeout = 15 * time.Second
	ReadyTimeout        = 5 * time.Second

	// Time necessary to mark chunking as completed when no more events
	// are received in this time frame.
	MemberChunkTimeout = 2 * time.Second
)

// ShardStatus represents the lifecycle state of a shard.
type ShardStatus int32

const (
	ShardStatusIdle ShardStatus = iota
	ShardStatusConnecting
	ShardStatusConnected
	ShardStatusReady
	ShardStatusReconnecting
	ShardStatusClosing
	ShardStatusClosed
	ShardStatusErroring
)

type queuedFrame struct {
	data interface{}
	op   discord.GatewayOp
}

// Shard represents a single gateway connection.
type Shard struct {
	ctx    context.Context
	cancel func()

	RoutineDeadSignal   DeadSignal `json:"-"`
	HeartbeatDeadSignal DeadSignal `json:"-"`

	Start *atomic.Time `json:"start"`
	Init  *atomic.Time `json:"init"`

	Logger zerolog.Logger `json:"-"`

	ShardID    int32 `json:"shard_id"`
	ShardCount int32 `json:"shard_count"`

	ResumeGatewayURL *atomic.String `json:"resume_gateway_url"`
	ConnectionURL    *atomic.String `json:"connection_url"`

	Concord *Concord `json:"-"`

	HeartbeatActive   *atomic.Bool `json:"-"`
	LastHeartbeatAck  *atomic.Time `json:"-"`
	LastHeartbeatSent *atomic.Time `json:"-"`

	Heartbeater       *time.Ticker  `json:"-"`
	HeartbeatInterval time.Duration `json:"-"`

	// Guilds that were present in ready and have not arrived yet.
	Lazy *csmap.CsMap[discord.Snowflake, bool] `json:"lazy"`

	// Guilds marked unavailable by the gateway.
	Unavailable *csmap.CsMap[discord.Snowflake, bool] `json:"unavailable"`

	// Local set of all guilds assigned to the shard.
	Guilds *csmap.CsMap[discord.Snowflake, struct{}] `json:"guilds"`

	statusMu sync.RWMutex
	Status   ShardStatus `json:"status"`

	channelMu sync.RWMutex
	MessageCh chan discord.GatewayPayload `json:"-"`
	ErrorCh   chan error                  `json:"-"`

	Sequence  *atomic.Int32  `json:"-"`
	SessionID *atomic.String `json:"-"`

	wsConnMu sync.RWMutex
	wsConn   *websocket.Conn

	wsRatelimit *limiter.DurationLimiter

	writeQueue chan queuedFrame

	MessagesSeen        *atomic.Int64 `json:"-"`
	PresenceUpdatesSeen *atomic.Int64 `json:"-"`

	ReconnectCount *atomic.Int32 `json:"reconnect_count"`

	ready chan void

	IsReady bool
}

// NewShard creates a new shard object.
func (c *Concord) NewShard(shardID, shardCount int32) *Shard {
	logger := c.Logger.With().Int32("shardId", shardID).Logger()

	sh := &Shard{
		RoutineDeadSignal:   DeadSignal{},
		HeartbeatDeadSignal: DeadSignal{},

		Logger: logger,

		ShardID:    shardID,
		ShardCount: shardCount,

		Concord: c,

		Start: &atomic.Time{},
		Init:  atomic.NewTime(time.Now().UTC()),

		HeartbeatActive:   atomic.NewBool(false),
		LastHeartbeatAck:  &atomic.Time{},
		LastHeartbeatSent: &atomic.Time{},

		Lazy: csmap.Create(
			csmap.WithSize[discord.Snowflake, bool](1000),
		),

		Unavailable: csmap.Create(
			csmap.WithSize[discord.Snowflake, bool](1000),
		),

		Guilds: csmap.Create(
			csmap.WithSize[discord.Snowflake, struct{}](1000),
		),

		statusMu: sync.RWMutex{},
		Status:   ShardStatusIdle,

		channelMu: sync.RWMutex{},

		Sequence:         &atomic.Int32{},
		SessionID:        &atomic.String{},
		ResumeGatewayURL: &atomic.String{},
		ConnectionURL:    &atomic.String{},

		wsConnMu: sync.RWMutex{},

		// 110 leaves headroom under the 120 frame budget so
		// heartbeats, which bypass the limiter, always fit.
		wsRatelimit: limiter.NewDurationLimiter("gateway:"+strconv.Itoa(int(shardID)), logger, ShardWSRateLimit, 2*time.Minute),

		writeQueue: make(chan queuedFrame, WriteQueueBuffer),

		MessagesSeen:        &atomic.Int64{},
		PresenceUpdatesSeen: &atomic.Int64{},

		ReconnectCount: &atomic.Int32{},

		ready: make(chan void, 1),
	}

	sh.ctx, sh.cancel = context.WithCancel(c.ctx)

	return sh
}

// Open starts listening to the gateway until the client shuts down.
func (sh *Shard) Open() {
	sh.Logger.Debug().Msg("Started listening to shard")

	for {
		err := sh.Listen(sh.ctx)
		if errors.Is(err, context.Canceled) {
			sh.Logger.Debug().Msg("Shard context canceled")

			return
		}

		select {
		case <-sh.RoutineDeadSignal.Dead():
			return
		case <-sh.Concord.ctx.Done():
			return
		default:
		}
	}
}

// Connect connects to the gateway and handles identifying or resuming.
func (sh *Shard) Connect() error {
	sh.Logger.Debug().Msg("Connecting shard")

	// Do not override status if it is currently Reconnecting.
	if sh.GetStatus() != ShardStatusReconnecting {
		sh.SetStatus(ShardStatusConnecting)
	}

	var err error

	defer func() {
		if err != nil {
			sh.SetStatus(ShardStatusErroring)
		}
	}()

	// Empty ready channel.
readyConsumer:
	for {
		select {
		case <-sh.ready:
		default:
			break readyConsumer
		}
	}

	sh.IsReady = false

	select {
	case <-sh.ctx.Done():
	default:
		sh.cancel()
	}

	sh.RoutineDeadSignal.Close("CONNECT")
	sh.RoutineDeadSignal.Revive()

	sh.HeartbeatDeadSignal.Close("HB")
	sh.HeartbeatDeadSignal.Revive()

	sh.ctx, sh.cancel = context.WithCancel(sh.Concord.ctx)

	defer func() {
		if err != nil && sh.hasWsConn() {
			sh.CloseWS(websocket.StatusNormalClosure)
		}
	}()

	gwURL := sh.Concord.gatewayURL()

	if resumeGwURL := sh.ResumeGatewayURL.Load(); resumeGwURL != "" {
		gwURL = resumeGwURL

		sh.Logger.Debug().Str("url", gwURL).Msg("Resuming shard")
		sh.ResumeGatewayURL.Store("")
	} else {
		sh.SessionID.Store("")
		sh.Sequence.Store(0)
	}

	gwURL = fmt.Sprintf("%s/?v=%s&encoding=json&compress=zlib-stream", gwURL, GatewayVersion)

	if sh.hasWsConn() {
		sh.Logger.Debug().Msg("Closing existing websocket connection")

		_ = sh.CloseWS(websocket.StatusInternalError)
	}

	sh.ConnectionURL.Store(gwURL)

	errorCh, messageCh, err := sh.FeedWebsocket(sh.ctx, gwURL, nil)
	if err != nil {
		sh.Logger.Error().Err(err).Msg("Failed to dial gateway")

		return err
	}

	sh.channelMu.Lock()
	sh.ErrorCh = errorCh
	sh.MessageCh = messageCh
	sh.channelMu.Unlock()

	// Read a message from the gateway, this should be Hello.
	msg, err := sh.readMessage()
	if err != nil {
		sh.Logger.Error().Err(err).Msg("Failed to read message")

		return err
	}

	var helloResponse discord.Hello

	err = sh.decodeContent(msg, &helloResponse)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	sh.Start.Store(now)
	sh.LastHeartbeatAck.Store(now)
	sh.LastHeartbeatSent.Store(now)

	// Jitter keeps the true interval under the server's deadline.
	hbIntervalWithJitter := int32(float32(helloResponse.HeartbeatInterval) * 0.8)

	sh.HeartbeatInterval = time.Duration(hbIntervalWithJitter) * time.Millisecond

	if sh.Heartbeater != nil {
		sh.Heartbeater.Stop()
	}

	sh.Heartbeater = time.NewTicker(sh.HeartbeatInterval)

	go sh.Heartbeat(sh.ctx)

	// Any previous drainer was torn down with RoutineDeadSignal above,
	// so each session owns exactly one.
	go sh.DrainWriteQueue(sh.ctx)

	sequence := sh.Sequence.Load()
	sessionID := sh.SessionID.Load()

	sh.Logger.Debug().
		Dur("interval", sh.HeartbeatInterval).
		Int32("sequence", sequence).
		Msg("Received HELLO event")

	if sessionID == "" || sequence == 0 {
		err = sh.Identify(sh.ctx)
		if err != nil {
			sh.Logger.Error().Err(err).Msg("Failed to identify")

			return err
		}
	} else {
		err = sh.Resume(sh.ctx)
		if err != nil {
			sh.Logger.Error().Err(err).Msg("Failed to resume")

			return err
		}
	}

	sh.SetStatus(ShardStatusConnected)

	// Wait until we either receive a first event, an error, or hit the
	// first event timeout. Nothing happens on timeout.
	t := time.NewTicker(FirstEventTimeout)
	defer t.Stop()

	sh.Logger.Trace().Msg("Waiting for first event")

	sh.channelMu.RLock()
	errorCh = sh.ErrorCh
	messageCh = sh.MessageCh
	sh.channelMu.RUnlock()

	select {
	case err = <-errorCh:
		if err == nil {
			err = fmt.Errorf("error channel closed")
		}

		sh.Logger.Error().Err(err).Msg("Encountered error whilst connecting")

		return err
	case msg = <-messageCh:
		sh.Logger.Debug().Msgf("Received first event %d %s", msg.Op, msg.Type)

		messageCh <- msg
	case <-t.C:
	}

	return err
}

// FeedWebsocket dials the gateway and reads websocket frames into a
// channel. Binary frames are decompressed before decoding.
func (sh *Shard) FeedWebsocket(ctx context.Context, u string,
	opts *websocket.DialOptions,
) (errorCh chan error, messageCh chan discord.GatewayPayload, err error) {
	messageCh = make(chan discord.GatewayPayload, MessageChannelBuffer)
	errorCh = make(chan error, 1)

	conn, _, err := websocket.Dial(ctx, u, opts)
	if err != nil {
		return errorCh, messageCh, fmt.Errorf("failed to connect to websocket: %w", err)
	}

	conn.SetReadLimit(WebsocketReadLimit)

	sh.wsConnMu.Lock()
	sh.wsConn = conn
	sh.wsConnMu.Unlock()

	go func() {
		sh.RoutineDeadSignal.Started()
		defer sh.RoutineDeadSignal.Done()

		for {
			messageType, data, connectionErr := conn.Read(ctx)

			select {
			case <-sh.RoutineDeadSignal.Dead():
				return
			case <-ctx.Done():
				return
			default:
			}

			concordEventCount.WithLabelValues(strconv.Itoa(int(sh.ShardID))).Inc()

			if connectionErr != nil {
				sh.Logger.Error().Err(connectionErr).Msg("Failed to read from gateway")
				errorCh <- connectionErr

				return
			}

			if messageType == websocket.MessageBinary {
				data, connectionErr = czlib.Decompress(data)
				if connectionErr != nil {
					sh.Logger.Error().Err(connectionErr).Msg("Failed to decompress data")
					errorCh <- connectionErr

					return
				}
			}

			var msg discord.GatewayPayload

			connectionErr = concordjson.Unmarshal(data, &msg)
			if connectionErr != nil {
				sh.Logger.Error().Err(connectionErr).
					Str("data", gotils_strconv.B2S(data)).
					Msg("Failed to unmarshal message")

				concordDiscardedEvents.WithLabelValues(strconv.Itoa(int(sh.ShardID))).Inc()

				continue
			}

			select {
			case messageCh <- msg:
				continue
			case <-sh.RoutineDeadSignal.Dead():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return errorCh, messageCh, nil
}

// Heartbeat maintains the connection heartbeat. A heartbeat that was
// not acknowledged by the next tick marks the connection dead.
func (sh *Shard) Heartbeat(ctx context.Context) {
	sh.HeartbeatActive.Store(true)
	sh.HeartbeatDeadSignal.Started()

	defer func() {
		sh.HeartbeatActive.Store(false)
		sh.HeartbeatDeadSignal.Done()
	}()

	for {
		select {
		case <-sh.HeartbeatDeadSignal.Dead():
			return
		case <-ctx.Done():
			return
		case <-sh.Heartbeater.C:
			if sh.LastHeartbeatAck.Load().Before(sh.LastHeartbeatSent.Load()) {
				sh.Logger.Warn().Msg("Previous heartbeat was not acknowledged")

				sh.pushError(fmt.Errorf("heartbeat not acknowledged before next interval"))

				return
			}

			err := sh.SendNow(ctx, discord.GatewayOpHeartbeat, sh.Sequence.Load())

			sh.LastHeartbeatSent.Store(time.Now().UTC())

			if err != nil {
				sh.Logger.Error().Err(err).Msg("Failed to heartbeat")

				sh.pushError(err)

				return
			}
		}
	}
}

// Listen reads and routes gateway events, reconnecting on failure
// unless the closure is unrecoverable.
func (sh *Shard) Listen(ctx context.Context) error {
	for {
		select {
		case <-sh.RoutineDeadSignal.Dead():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, err := sh.readMessage()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}

			sh.Logger.Error().Err(err).Msg("Error reading from gateway")

			var closeError *websocket.CloseError

			if errors.As(err, &closeError) && isUnrecoverableCloseCode(closeError.Code) {
				sh.Logger.Error().Int("code", int(closeError.Code)).Msg("Shard received unrecoverable closure code")

				sh.Close(websocket.StatusNormalClosure)

				return err
			}

			err = sh.Reconnect(isAbnormalClosure(err))
			if err != nil {
				if errors.Is(err, ErrReconnectSuperseded) {
					return nil
				}

				return err
			}

			continue
		}

		sh.OnEvent(ctx, msg)
	}
}

// DrainWriteQueue flushes queued frames in submission order, one frame
// per tick.
func (sh *Shard) DrainWriteQueue(ctx context.Context) {
	sh.RoutineDeadSignal.Started()
	defer sh.RoutineDeadSignal.Done()

	t := time.NewTicker(WriteQueueDrainInterval)
	defer t.Stop()

	for {
		select {
		case <-sh.RoutineDeadSignal.Dead():
			return
		case <-ctx.Done():
			return
		case <-t.C:
			select {
			case frame := <-sh.writeQueue:
				err := sh.writeFrame(ctx, frame.op, frame.data)
				if err != nil {
					sh.Logger.Error().Err(err).Int("op", int(frame.op)).Msg("Failed to write queued frame")
				}
			default:
			}
		}
	}
}

// SendEvent queues an event for the paced writer. Queued frames retain
// submission order. Callers block only while the queue is full.
func (sh *Shard) SendEvent(ctx context.Context, op discord.GatewayOp, data interface{}) error {
	select {
	case sh.writeQueue <- queuedFrame{op: op, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendNow writes an event immediately, bypassing the write queue. Used
// for control frames that cannot wait behind queued traffic.
func (sh *Shard) SendNow(ctx context.Context, op discord.GatewayOp, data interface{}) error {
	err := sh.writeFrame(ctx, op, data)
	if err != nil {
		return fmt.Errorf("sendNow writeFrame: %w", err)
	}

	return nil
}

// writeFrame writes a frame to the websocket.
func (sh *Shard) writeFrame(ctx context.Context, op discord.GatewayOp, data interface{}) error {
	// In very rare circumstances, we can be writing to the websocket
	// whilst the connection is being remade. Recover and dismiss any
	// SIGSEGVs that are raised.
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				sh.Logger.Warn().Err(err).Bool("hasWsConn", sh.hasWsConn()).Msg("Recovered panic in writeFrame")
			} else {
				sh.Logger.Warn().Interface("recovered", r).Bool("hasWsConn", sh.hasWsConn()).Msg("Recovered panic in writeFrame")
			}
		}
	}()

	if !sh.hasWsConn() {
		return fmt.Errorf("no websocket connection")
	}

	res, err := concordjson.Marshal(discord.SentPayload{
		Op:   op,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	// Heartbeats are exempt so the limiter can never starve them.
	if op != discord.GatewayOpHeartbeat {
		sh.wsRatelimit.Lock()
	}

	sh.wsConnMu.RLock()
	wsConn := sh.wsConn
	sh.wsConnMu.RUnlock()

	sh.Logger.Trace().Msg("<<< " + gotils_strconv.B2S(res))

	err = wsConn.Write(ctx, websocket.MessageText, res)
	if err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Identify sends the identify packet to the gateway, gated on the
// identify concurrency bucket.
func (sh *Shard) Identify(ctx context.Context) error {
	sh.Concord.gatewayMu.Lock()
	sh.Concord.Gateway.SessionStartLimit.Remaining--
	sh.Concord.gatewayMu.Unlock()

	err := sh.Concord.WaitForIdentify(sh.ShardID)
	if err != nil {
		return fmt.Errorf("failed to wait for identify: %w", err)
	}

	sh.Logger.Debug().Msg("Wait for identify completed")

	sh.Concord.configurationMu.RLock()
	token := sh.Concord.Configuration.Token
	presence := sh.Concord.Configuration.Bot.DefaultPresence
	intents := sh.Concord.Configuration.Bot.Intents
	largeThreshold := sh.Concord.Configuration.Bot.LargeThreshold
	sh.Concord.configurationMu.RUnlock()

	if largeThreshold == 0 {
		largeThreshold = GatewayLargeThreshold
	}

	sh.Logger.Debug().Msg("Sending identify")

	return sh.SendNow(ctx, discord.GatewayOpIdentify, discord.Identify{
		Token: token,
		Properties: &discord.IdentifyProperties{
			OS:      runtime.GOOS,
			Browser: "Concord " + VERSION,
			Device:  "Concord " + VERSION,
		},
		Compress:       true,
		LargeThreshold: largeThreshold,
		Shard:          [2]int32{sh.ShardID, sh.ShardCount},
		Presence:       presence,
		Intents:        intents,
	})
}

// Resume resumes a dropped session.
func (sh *Shard) Resume(ctx context.Context) error {
	sh.Concord.configurationMu.RLock()
	token := sh.Concord.Configuration.Token
	sh.Concord.configurationMu.RUnlock()

	sh.Logger.Debug().
		Str("sessionId", sh.SessionID.Load()).
		Int32("sequence", sh.Sequence.Load()).
		Msg("Sending resume")

	return sh.SendNow(ctx, discord.GatewayOpResume, discord.Resume{
		Token:     token,
		SessionID: sh.SessionID.Load(),
		Sequence:  sh.Sequence.Load(),
	})
}

// UpdatePresence queues a presence update.
func (sh *Shard) UpdatePresence(ctx context.Context, status *discord.UpdateStatus) error {
	return sh.SendEvent(ctx, discord.GatewayOpStatusUpdate, status)
}

// decodeContent converts the stored msg data into the passed interface.
func (sh *Shard) decodeContent(msg discord.GatewayPayload, out interface{}) error {
	err := concordjson.Unmarshal(msg.Data, out)
	if err != nil {
		sh.Logger.Error().Err(err).
			Str("type", msg.Type).
			Str("data", gotils_strconv.B2S(msg.Data)).
			Msg("Failed to decode event")

		concordDiscardedEvents.WithLabelValues(strconv.Itoa(int(sh.ShardID))).Inc()

		return err
	}

	return nil
}

// readMessage returns the next message or error from the reader
// goroutine.
func (sh *Shard) readMessage() (msg discord.GatewayPayload, err error) {
	sh.channelMu.RLock()
	errorCh := sh.ErrorCh
	messageCh := sh.MessageCh
	sh.channelMu.RUnlock()

	select {
	case err = <-errorCh:
		return msg, err
	case msg = <-messageCh:
		return msg, nil
	}
}

// pushError feeds an error to the shard loop without blocking.
func (sh *Shard) pushError(err error) {
	sh.channelMu.RLock()
	errorCh := sh.ErrorCh
	sh.channelMu.RUnlock()

	select {
	case errorCh <- err:
	default:
	}
}

// Close closes the shard connection. Any pending reconnect timer is
// superseded because the owning context is cancelled.
func (sh *Shard) Close(code websocket.StatusCode) {
	sh.Logger.Info().Int("code", int(code)).Msg("Closing shard")

	sh.IsReady = false

	sh.SetStatus(ShardStatusClosing)

	// Cancel before signalling so goroutines blocked on the connection
	// unwind instead of deadlocking the signal wait.
	if sh.cancel != nil {
		sh.cancel()
	}

	if sh.hasWsConn() {
		if err := sh.CloseWS(code); err != nil {
			sh.Logger.Debug().Err(err).Msg("Encountered error closing websocket")
		}
	}

	sh.HeartbeatDeadSignal.Close("HB")
	sh.HeartbeatDeadSignal.Revive()

	sh.RoutineDeadSignal.Close("CLOSE")
	sh.RoutineDeadSignal.Revive()

	if sh.Heartbeater != nil {
		sh.Heartbeater.Stop()
	}

	sh.SetStatus(ShardStatusClosed)
}

// CloseWS closes the websocket connection, suppressing close errors.
func (sh *Shard) CloseWS(statusCode websocket.StatusCode) error {
	if sh.hasWsConn() {
		sh.Logger.Debug().Int("code", int(statusCode)).Msg("Closing websocket connection")

		sh.wsConnMu.Lock()
		wsConn := sh.wsConn

		if wsConn != nil {
			err := wsConn.Close(statusCode, "")
			if err != nil && !errors.Is(err, context.Canceled) {
				sh.Logger.Warn().Err(err).Msg("Failed to close websocket connection")
			}
		}

		sh.wsConn = nil
		sh.wsConnMu.Unlock()
	}

	return nil
}

// WaitForReady blocks until the shard is ready.
func (sh *Shard) WaitForReady() {
	if sh.IsReady {
		return
	}

	since := time.Now().UTC()
	t := time.NewTicker(WaitForReadyTimeout)

	defer t.Stop()

	for {
		if sh.IsReady {
			return
		}

		select {
		case <-sh.ready:
			sh.IsReady = true

			return
		case <-sh.Concord.ctx.Done():
			return
		case <-t.C:
			sh.Logger.Debug().
				Dur("since", time.Now().UTC().Sub(since).Round(time.Second)).
				Msg("Still waiting for shard to be ready")
		}
	}
}

// Reconnect closes the connection and retries after a fixed backoff.
// Shutdown supersedes a pending reconnect: the timer is cancelled and
// never fires.
func (sh *Shard) Reconnect(abnormal bool) error {
	wait := reconnectBackoff(abnormal)

	sh.Close(WebsocketReconnectCloseCode)
	sh.SetStatus(ShardStatusReconnecting)

	for {
		sh.Logger.Info().Dur("backoff", wait).Msg("Reconnecting to gateway")

		timer := time.NewTimer(wait)

		select {
		case <-sh.Concord.ctx.Done():
			timer.Stop()

			sh.Logger.Debug().Msg("Pending reconnect superseded by shutdown")

			return ErrReconnectSuperseded
		case <-timer.C:
		}

		err := sh.Connect()
		if err == nil {
			sh.ReconnectCount.Inc()
			concordShardReconnectCount.WithLabelValues(strconv.Itoa(int(sh.ShardID))).Inc()

			sh.Logger.Info().Msg("Successfully reconnected to gateway")

			return nil
		}

		var closeError *websocket.CloseError

		if errors.As(err, &closeError) && isUnrecoverableCloseCode(closeError.Code) {
			return err
		}

		sh.Logger.Warn().Err(err).Msg("Failed to reconnect to gateway")

		wait = reconnectBackoff(false)
	}
}

// ChunkGuild requests member chunks for a guild and waits for them to
// arrive, or until no chunk has been received within the timeout.
func (sh *Shard) ChunkGuild(ctx context.Context, guildID discord.Snowflake) error {
	nonce := randomHex(16)

	chunkCh := sh.Concord.subscribeGuildChunks(guildID)
	defer sh.Concord.unsubscribeGuildChunks(guildID)

	err := sh.SendEvent(ctx, discord.GatewayOpRequestGuildMembers, discord.RequestGuildMembers{
		GuildID: guildID,
		Nonce:   nonce,
	})
	if err != nil {
		return fmt.Errorf("failed to request guild members: %w", err)
	}

	chunksReceived := int32(0)
	totalChunks := int32(0)

	timeout := time.NewTimer(MemberChunkTimeout + WriteQueueDrainInterval)
	defer timeout.Stop()

chunkLoop:
	for {
		select {
		case chunk := <-chunkCh:
			if chunk.Nonce != nonce {
				continue
			}

			chunksReceived++
			totalChunks = chunk.ChunkCount

			// Receiving a chunk resets the timeout.
			timeout.Reset(MemberChunkTimeout)

			if chunksReceived >= totalChunks {
				sh.Logger.Debug().
					Int64("guildId", int64(guildID)).
					Int32("totalChunks", totalChunks).
					Msg("Received all guild member chunks")

				break chunkLoop
			}
		case <-timeout.C:
			sh.Logger.Warn().
				Int64("guildId", int64(guildID)).
				Int32("chunksReceived", chunksReceived).
				Int32("totalChunks", totalChunks).
				Msg("Timed out receiving guild member chunks")

			break chunkLoop
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// SetStatus sets the status of the shard.
func (sh *Shard) SetStatus(status ShardStatus) {
	sh.statusMu.Lock()
	defer sh.statusMu.Unlock()

	sh.Logger.Debug().Int("status", int(status)).Msg("Shard status changed")

	sh.Status = status
}

// GetStatus returns the status of the shard.
func (sh *Shard) GetStatus() (status ShardStatus) {
	sh.statusMu.RLock()
	defer sh.statusMu.RUnlock()

	return sh.Status
}

func (sh *Shard) hasWsConn() (hasWsConn bool) {
	sh.wsConnMu.RLock()
	hasWsConn = sh.wsConn != nil
	sh.wsConnMu.RUnlock()

	return
}

// reconnectBackoff selects the fixed wait before a reconnect attempt.
func reconnectBackoff(abnormal bool) time.Duration {
	if abnormal {
		return AbnormalReconnectBackoff
	}

	return ReconnectBackoff
}

// isUnrecoverableCloseCode reports close codes that identifying again
// cannot fix, such as invalid authentication or disallowed intents.
func isUnrecoverableCloseCode(code websocket.StatusCode) bool {
	switch int(code) {
	case discord.CloseNotAuthenticated,
		discord.CloseAuthenticationFailed,
		discord.CloseInvalidShard,
		discord.CloseShardingRequired,
		discord.CloseInvalidAPIVersion,
		discord.CloseInvalidIntents,
		discord.CloseDisallowedIntents:
		return true
	}

	return false
}

// isAbnormalClosure reports whether a read failure was an abnormal
// termination rather than an orderly close.
func isAbnormalClosure(err error) bool {
	var closeError *websocket.CloseError

	if errors.As(err, &closeError) {
		return closeError.Code == websocket.StatusAbnormalClosure
	}

	// No close frame at all: the transport dropped.
	return true
}
