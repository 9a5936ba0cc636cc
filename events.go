package concord

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/concord-labs/concord/discord"
)

type (
	gatewayHandler  func(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error
	dispatchHandler func(ctx StateCtx, msg discord.GatewayPayload) error
)

var gatewayHandlers = make(map[discord.GatewayOp]gatewayHandler)

var dispatchHandlers = make(map[string]dispatchHandler)

func registerGatewayEvent(op discord.GatewayOp, handler gatewayHandler) {
	gatewayHandlers[op] = handler
}

func registerDispatch(eventType string, handler dispatchHandler) {
	dispatchHandlers[eventType] = handler
}

// OnEvent routes a gateway payload to its opcode handler. Sequence
// numbers advance only when the server supplies one.
func (sh *Shard) OnEvent(ctx context.Context, msg discord.GatewayPayload) {
	if msg.Sequence != 0 {
		sh.Sequence.Store(msg.Sequence)
	}

	err := GatewayDispatch(ctx, sh, msg)
	if err != nil {
		if errors.Is(err, ErrNoGatewayHandler) {
			sh.Logger.Warn().
				Int("op", int(msg.Op)).
				Str("type", msg.Type).
				Msg("No gateway handler for opcode")

			return
		}

		sh.Logger.Error().Err(err).
			Int("op", int(msg.Op)).
			Str("type", msg.Type).
			Msg("Gateway handler failed")
	}
}

// GatewayDispatch routes the payload against the opcode handler table.
func GatewayDispatch(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	if handler, ok := gatewayHandlers[msg.Op]; ok {
		return handler(ctx, sh, msg)
	}

	return ErrNoGatewayHandler
}

// OnDispatch handles a dispatch event: state update plus user callback.
// Malformed events are logged and discarded; they never tear the
// connection down.
func (sh *Shard) OnDispatch(ctx context.Context, msg discord.GatewayPayload) error {
	start := time.Now().UTC()

	defer func() {
		if change := time.Now().UTC().Sub(start); change > time.Second {
			sh.Logger.Warn().
				Str("type", msg.Type).
				Dur("duration", change).
				Msg("Dispatch event took too long to process")
		}
	}()

	concordDispatchEventCount.WithLabelValues(strconv.Itoa(int(sh.ShardID)), msg.Type).Inc()

	sh.Concord.configurationMu.RLock()
	cacheUsers := sh.Concord.Configuration.Caching.CacheUsers
	cacheMembers := sh.Concord.Configuration.Caching.CacheMembers
	storeMutuals := sh.Concord.Configuration.Caching.StoreMutuals
	sh.Concord.configurationMu.RUnlock()

	err := StateDispatch(StateCtx{
		CacheUsers:   cacheUsers,
		CacheMembers: cacheMembers,
		StoreMutuals: storeMutuals,

		context: ctx,
		Shard:   sh,
	}, msg)
	if err != nil {
		if errors.Is(err, ErrNoDispatchHandler) {
			sh.Logger.Trace().Str("type", msg.Type).Msg("No dispatch handler for event")

			return nil
		}

		return err
	}

	return nil
}

// StateDispatch routes the event against the dispatch handler table.
func StateDispatch(ctx StateCtx, msg discord.GatewayPayload) error {
	if handler, ok := dispatchHandlers[msg.Type]; ok {
		ctx.Logger.Trace().Str("type", msg.Type).Msg("State dispatch")

		return handler(ctx, msg)
	}

	return ErrNoDispatchHandler
}
