package concord

import (
	"time"

	"github.com/concord-labs/concord/discord"
)

// OnReady handles the READY event. The shard holds back readiness until
// the burst of initial GUILD_CREATE events has settled.
func OnReady(ctx StateCtx, msg discord.GatewayPayload) error {
	ctx.Logger.Debug().Msg("Received READY payload")

	var ready discord.Ready

	err := ctx.decodeContent(msg, &ready)
	if err != nil {
		return err
	}

	ctx.SessionID.Store(ready.SessionID)
	ctx.ResumeGatewayURL.Store(ready.ResumeGatewayURL)

	ctx.Concord.userMu.Lock()
	ctx.Concord.User = ready.User
	ctx.Concord.UserID.Store(int64(ready.User.ID))
	ctx.Concord.userMu.Unlock()

	ctx.Concord.State.SetUser(ctx, ready.User)

	for _, guild := range ready.Guilds {
		ctx.Lazy.Store(guild.ID, true)
		ctx.Unavailable.Store(guild.ID, true)
		ctx.Guilds.Store(guild.ID, struct{}{})
	}

	guildCreateEvents := 0

	// Forward events whilst waiting for the initial guild burst to
	// settle. Each GUILD_CREATE pushes the deadline back.
	readyTimeout := time.NewTicker(ReadyTimeout)
	defer readyTimeout.Stop()

ready:
	for {
		select {
		case forwardedMsg := <-ctx.MessageCh:
			if forwardedMsg.Type == "GUILD_CREATE" {
				guildCreateEvents++

				readyTimeout.Reset(ReadyTimeout)
			}

			err = ctx.OnDispatch(ctx.context, forwardedMsg)
			if err != nil {
				ctx.Logger.Error().Err(err).Str("type", forwardedMsg.Type).Msg("State dispatch failed")
			}
		case <-readyTimeout.C:
			ctx.Logger.Debug().Int("guilds", guildCreateEvents).Msg("Finished lazy loading guilds")

			break ready
		case <-ctx.context.Done():
			return nil
		}
	}

	ctx.Logger.Info().Msg("Shard is ready")

	select {
	case ctx.ready <- void{}:
	default:
	}

	ctx.IsReady = true
	ctx.SetStatus(ShardStatusReady)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onReady
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, ready)
	}

	return nil
}

func OnResumed(ctx StateCtx, msg discord.GatewayPayload) error {
	ctx.Logger.Info().Msg("Shard has resumed")

	select {
	case ctx.ready <- void{}:
	default:
	}

	ctx.IsReady = true
	ctx.SetStatus(ShardStatusReady)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onResumed
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx)
	}

	return nil
}

func OnGuildCreate(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildCreate discord.GuildCreate

	err := ctx.decodeContent(msg, &guildCreate)
	if err != nil {
		return err
	}

	guildID := guildCreate.ID

	// A guild arriving during startup is part of the lazy-loading burst,
	// not an actual join.
	lazy, _ := ctx.Lazy.Load(guildID)
	ctx.Lazy.Delete(guildID)

	ctx.Unavailable.Delete(guildID)

	guildCreate.Lazy = lazy

	ctx.Concord.State.SetGuild(ctx, guildCreate.Guild)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildCreate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildCreate)
	}

	return nil
}

func OnGuildUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildUpdate discord.GuildUpdate

	err := ctx.decodeContent(msg, &guildUpdate)
	if err != nil {
		return err
	}

	before := ctx.Concord.State.UpdateGuild(ctx, guildUpdate)
	after, _ := ctx.Concord.State.GetGuild(guildUpdate.ID)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, after)
	}

	return nil
}

func OnGuildDelete(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildDelete discord.GuildDelete

	err := ctx.decodeContent(msg, &guildDelete)
	if err != nil {
		return err
	}

	before, _ := ctx.Concord.State.GetGuild(guildDelete.ID)

	if guildDelete.Unavailable {
		// An outage, not a removal. The guild stays cached but is
		// flagged until its GUILD_CREATE arrives again.
		ctx.Unavailable.Store(guildDelete.ID, true)

		ctx.Concord.State.Guilds.Update(guildDelete.ID, func(guild discord.Guild) discord.Guild {
			guild.Unavailable = true

			return guild
		})
	} else {
		ctx.Concord.State.RemoveGuild(ctx, guildDelete.ID)
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildDelete
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, guildDelete.Unavailable)
	}

	return nil
}

func OnGuildMemberAdd(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildMemberAdd discord.GuildMemberAdd

	err := ctx.decodeContent(msg, &guildMemberAdd)
	if err != nil {
		return err
	}

	ctx.Concord.State.Guilds.Update(guildMemberAdd.GuildID, func(guild discord.Guild) discord.Guild {
		if guild.MemberCount != nil {
			memberCount := *guild.MemberCount + 1
			guild.MemberCount = &memberCount
		}

		return guild
	})

	ctx.Concord.State.SetGuildMember(ctx, guildMemberAdd.GuildID, guildMemberAdd.GuildMember)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildMemberAdd
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildMemberAdd.GuildMember)
	}

	return nil
}

func OnGuildMemberUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildMemberUpdate discord.GuildMemberUpdate

	err := ctx.decodeContent(msg, &guildMemberUpdate)
	if err != nil {
		return err
	}

	before := ctx.Concord.State.UpdateGuildMember(ctx, guildMemberUpdate.GuildID, guildMemberUpdate.GuildMember)

	var after discord.GuildMember

	if guildMemberUpdate.User != nil {
		after, _ = ctx.Concord.State.GetGuildMember(guildMemberUpdate.GuildID, guildMemberUpdate.User.ID)
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildMemberUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, after)
	}

	return nil
}

func OnGuildMemberRemove(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildMemberRemove discord.GuildMemberRemove

	err := ctx.decodeContent(msg, &guildMemberRemove)
	if err != nil {
		return err
	}

	ctx.Concord.State.Guilds.Update(guildMemberRemove.GuildID, func(guild discord.Guild) discord.Guild {
		if guild.MemberCount != nil {
			memberCount := *guild.MemberCount - 1
			guild.MemberCount = &memberCount
		}

		return guild
	})

	ctx.Concord.State.RemoveGuildMember(guildMemberRemove.GuildID, guildMemberRemove.User.ID)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildMemberRemove
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildMemberRemove)
	}

	return nil
}

func OnGuildRoleCreate(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildRoleCreate discord.GuildRoleCreate

	err := ctx.decodeContent(msg, &guildRoleCreate)
	if err != nil {
		return err
	}

	ctx.Concord.State.SetGuildRole(guildRoleCreate.GuildID, guildRoleCreate.Role)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildRoleCreate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildRoleCreate.Role)
	}

	return nil
}

func OnGuildRoleUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildRoleUpdate discord.GuildRoleUpdate

	err := ctx.decodeContent(msg, &guildRoleUpdate)
	if err != nil {
		return err
	}

	before, _ := ctx.Concord.State.GetGuildRole(guildRoleUpdate.GuildID, guildRoleUpdate.Role.ID)

	ctx.Concord.State.SetGuildRole(guildRoleUpdate.GuildID, guildRoleUpdate.Role)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildRoleUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, guildRoleUpdate.Role)
	}

	return nil
}

func OnGuildRoleDelete(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildRoleDelete discord.GuildRoleDelete

	err := ctx.decodeContent(msg, &guildRoleDelete)
	if err != nil {
		return err
	}

	before, _ := ctx.Concord.State.GetGuildRole(guildRoleDelete.GuildID, guildRoleDelete.RoleID)

	ctx.Concord.State.RemoveGuildRole(guildRoleDelete.GuildID, guildRoleDelete.RoleID)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildRoleDelete
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, guildRoleDelete)
	}

	return nil
}

func OnChannelCreate(ctx StateCtx, msg discord.GatewayPayload) error {
	var channelCreate discord.ChannelCreate

	err := ctx.decodeContent(msg, &channelCreate)
	if err != nil {
		return err
	}

	storeChannel(ctx, channelCreate)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onChannelCreate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, channelCreate)
	}

	return nil
}

func OnChannelUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var channelUpdate discord.ChannelUpdate

	err := ctx.decodeContent(msg, &channelUpdate)
	if err != nil {
		return err
	}

	var (
		before discord.Channel
		after  discord.Channel
	)

	if channelUpdate.GuildID != nil {
		before = ctx.Concord.State.UpdateGuildChannel(ctx, *channelUpdate.GuildID, channelUpdate)
		after, _ = ctx.Concord.State.GetGuildChannel(*channelUpdate.GuildID, channelUpdate.ID)
	} else {
		storeChannel(ctx, channelUpdate)

		after = channelUpdate
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onChannelUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, after)
	}

	return nil
}

func OnChannelDelete(ctx StateCtx, msg discord.GatewayPayload) error {
	var channelDelete discord.ChannelDelete

	err := ctx.decodeContent(msg, &channelDelete)
	if err != nil {
		return err
	}

	var before discord.Channel

	if channelDelete.GuildID != nil {
		before, _ = ctx.Concord.State.GetGuildChannel(*channelDelete.GuildID, channelDelete.ID)

		ctx.Concord.State.RemoveGuildChannel(*channelDelete.GuildID, channelDelete.ID)
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onChannelDelete
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before)
	}

	return nil
}

func OnGuildBanAdd(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildBanAdd discord.GuildBanAdd

	err := ctx.decodeContent(msg, &guildBanAdd)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildBanAdd
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildBanAdd)
	}

	return nil
}

func OnGuildBanRemove(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildBanRemove discord.GuildBanRemove

	err := ctx.decodeContent(msg, &guildBanRemove)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildBanRemove
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildBanRemove)
	}

	return nil
}

func OnMessageCreate(ctx StateCtx, msg discord.GatewayPayload) error {
	var messageCreate discord.MessageCreate

	err := ctx.decodeContent(msg, &messageCreate)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onMessageCreate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, messageCreate)
	}

	return nil
}

func OnMessageUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var messageUpdate discord.MessageUpdate

	err := ctx.decodeContent(msg, &messageUpdate)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onMessageUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, messageUpdate)
	}

	return nil
}

func OnMessageDelete(ctx StateCtx, msg discord.GatewayPayload) error {
	var messageDelete discord.MessageDelete

	err := ctx.decodeContent(msg, &messageDelete)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onMessageDelete
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, messageDelete)
	}

	return nil
}

func OnPresenceUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	ctx.PresenceUpdatesSeen.Inc()

	var presenceUpdate discord.PresenceUpdate

	err := ctx.decodeContent(msg, &presenceUpdate)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onPresenceUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, presenceUpdate)
	}

	return nil
}

func OnTypingStart(ctx StateCtx, msg discord.GatewayPayload) error {
	var typingStart discord.TypingStart

	err := ctx.decodeContent(msg, &typingStart)
	if err != nil {
		return err
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onTypingStart
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, typingStart)
	}

	return nil
}

func OnVoiceStateUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var voiceStateUpdate discord.VoiceStateUpdate

	err := ctx.decodeContent(msg, &voiceStateUpdate)
	if err != nil {
		return err
	}

	if voiceStateUpdate.GuildID != nil && voiceStateUpdate.Member != nil {
		ctx.Concord.State.SetGuildMember(ctx, *voiceStateUpdate.GuildID, *voiceStateUpdate.Member)
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onVoiceStateUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, voiceStateUpdate)
	}

	return nil
}

func OnGuildMembersChunk(ctx StateCtx, msg discord.GatewayPayload) error {
	var guildMembersChunk discord.GuildMembersChunk

	err := ctx.decodeContent(msg, &guildMembersChunk)
	if err != nil {
		return err
	}

	for _, member := range guildMembersChunk.Members {
		ctx.Concord.State.SetGuildMember(ctx, guildMembersChunk.GuildID, member)
	}

	ctx.Logger.Debug().
		Int64("guildId", int64(guildMembersChunk.GuildID)).
		Int("members", len(guildMembersChunk.Members)).
		Int32("chunkIndex", guildMembersChunk.ChunkIndex).
		Int32("chunkCount", guildMembersChunk.ChunkCount).
		Msg("Chunked guild members")

	ctx.Concord.publishGuildChunk(guildMembersChunk)

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onGuildMembersChunk
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, guildMembersChunk)
	}

	return nil
}

func OnUserUpdate(ctx StateCtx, msg discord.GatewayPayload) error {
	var user discord.User

	err := ctx.decodeContent(msg, &user)
	if err != nil {
		return err
	}

	before, _ := ctx.Concord.State.GetUser(user.ID)

	ctx.Concord.State.SetUser(ctx, user)

	if ctx.Concord.UserID.Load() == int64(user.ID) {
		ctx.Concord.userMu.Lock()
		ctx.Concord.User = user
		ctx.Concord.userMu.Unlock()
	}

	ctx.Concord.Handlers.mu.RLock()
	fn := ctx.Concord.Handlers.onUserUpdate
	ctx.Concord.Handlers.mu.RUnlock()

	if fn != nil {
		fn(ctx, before, user)
	}

	return nil
}

// storeChannel routes a channel to the guild cache or, for direct
// messages, the DM cache.
func storeChannel(ctx StateCtx, channel discord.Channel) {
	if channel.GuildID != nil {
		ctx.Concord.State.SetGuildChannel(ctx, *channel.GuildID, channel)

		return
	}

	for _, recipient := range channel.Recipients {
		ctx.Concord.State.AddDMChannel(recipient.ID, channel)
	}
}

func init() {
	registerDispatch("READY", OnReady)
	registerDispatch("RESUMED", OnResumed)
	registerDispatch("GUILD_CREATE", OnGuildCreate)
	registerDispatch("GUILD_UPDATE", OnGuildUpdate)
	registerDispatch("GUILD_DELETE", OnGuildDelete)
	registerDispatch("GUILD_MEMBER_ADD", OnGuildMemberAdd)
	registerDispatch("GUILD_MEMBER_UPDATE", OnGuildMemberUpdate)
	registerDispatch("GUILD_MEMBER_REMOVE", OnGuildMemberRemove)
	registerDispatch("GUILD_ROLE_CREATE", OnGuildRoleCreate)
	registerDispatch("GUILD_ROLE_UPDATE", OnGuildRoleUpdate)
	registerDispatch("GUILD_ROLE_DELETE", OnGuildRoleDelete)
	registerDispatch("CHANNEL_CREATE", OnChannelCreate)
	registerDispatch("CHANNEL_UPDATE", OnChannelUpdate)
	registerDispatch("CHANNEL_DELETE", OnChannelDelete)
	registerDispatch("GUILD_BAN_ADD", OnGuildBanAdd)
	registerDispatch("GUILD_BAN_REMOVE", OnGuildBanRemove)
	registerDispatch("MESSAGE_CREATE", OnMessageCreate)
	registerDispatch("MESSAGE_UPDATE", OnMessageUpdate)
	registerDispatch("MESSAGE_DELETE", OnMessageDelete)
	registerDispatch("PRESENCE_UPDATE", OnPresenceUpdate)
	registerDispatch("TYPING_START", OnTypingStart)
	registerDispatch("VOICE_STATE_UPDATE", OnVoiceStateUpdate)
	registerDispatch("GUILD_MEMBERS_CHUNK", OnGuildMembersChunk)
	registerDispatch("USER_UPDATE", OnUserUpdate)
}
