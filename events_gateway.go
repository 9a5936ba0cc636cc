package concord

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/concord-labs/concord/discord"
)

func gatewayOpDispatch(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	sh.MessagesSeen.Inc()

	go func(msg discord.GatewayPayload) {
		err := sh.OnDispatch(ctx, msg)
		if err != nil {
			sh.Logger.Error().Err(err).Str("type", msg.Type).Msg("State dispatch failed")
		}
	}(msg)

	return nil
}

func gatewayOpHeartbeat(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	err := sh.SendNow(ctx, discord.GatewayOpHeartbeat, sh.Sequence.Load())
	if err != nil {
		go sh.reconnectInBackground(true)

		return err
	}

	return nil
}

func gatewayOpReconnect(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	sh.Logger.Info().Msg("Reconnecting in response to gateway")

	go sh.reconnectInBackground(false)

	return nil
}

func gatewayOpInvalidSession(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	resumable := false

	err := sh.decodeContent(msg, &resumable)
	if err != nil {
		sh.Logger.Warn().Err(err).Msg("Failed to decode INVALID_SESSION")
	}

	if !resumable {
		sh.SessionID.Store("")
		sh.Sequence.Store(0)
		sh.ResumeGatewayURL.Store("")
	}

	sh.Logger.Warn().Bool("resumable", resumable).Msg("Received INVALID_SESSION")

	go sh.reconnectInBackground(false)

	return nil
}

func gatewayOpHello(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	// Hello is consumed during Connect. Receiving one mid-session means
	// the server restarted the session underneath us.
	sh.Logger.Warn().Msg("Received HELLO whilst connected")

	return nil
}

func gatewayOpHeartbeatACK(ctx context.Context, sh *Shard, msg discord.GatewayPayload) error {
	now := time.Now().UTC()

	sh.LastHeartbeatAck.Store(now)

	latency := now.Sub(sh.LastHeartbeatSent.Load())

	sh.Logger.Trace().Dur("latency", latency).Msg("Received heartbeat ACK")

	concordGatewayLatency.
		WithLabelValues(strconv.Itoa(int(sh.ShardID))).
		Set(float64(latency.Milliseconds()))

	return nil
}

// reconnectInBackground runs a reconnect off the listen loop, for
// server-initiated reconnects that arrive as regular events.
func (sh *Shard) reconnectInBackground(abnormal bool) {
	err := sh.Reconnect(abnormal)
	if err != nil && !errors.Is(err, ErrReconnectSuperseded) {
		sh.Logger.Error().Err(err).Msg("Failed to reconnect after gateway request")
	}
}

func init() {
	registerGatewayEvent(discord.GatewayOpDispatch, gatewayOpDispatch)
	registerGatewayEvent(discord.GatewayOpHeartbeat, gatewayOpHeartbeat)
	registerGatewayEvent(discord.GatewayOpReconnect, gatewayOpReconnect)
	registerGatewayEvent(discord.GatewayOpInvalidSession, gatewayOpInvalidSession)
	registerGatewayEvent(discord.GatewayOpHello, gatewayOpHello)
	registerGatewayEvent(discord.GatewayOpHeartbeatACK, gatewayOpHeartbeatACK)
}
