package concord

import (
	"sync"

	"github.com/concord-labs/concord/discord"
)

// Handlers holds the user callbacks for dispatch events. One callback
// per event type; registering again replaces the previous callback.
// Callbacks run synchronously on the dispatching goroutine, after the
// state cache has been updated.
type Handlers struct {
	mu sync.RWMutex

	onReady   func(ctx StateCtx, ready discord.Ready)
	onResumed func(ctx StateCtx)

	onGuildCreate func(ctx StateCtx, guild discord.GuildCreate)
	onGuildUpdate func(ctx StateCtx, before, after discord.Guild)
	onGuildDelete func(ctx StateCtx, before discord.Guild, unavailable bool)

	onGuildMemberAdd    func(ctx StateCtx, member discord.GuildMember)
	onGuildMemberUpdate func(ctx StateCtx, before, after discord.GuildMember)
	onGuildMemberRemove func(ctx StateCtx, remove discord.GuildMemberRemove)

	onGuildRoleCreate func(ctx StateCtx, role discord.Role)
	onGuildRoleUpdate func(ctx StateCtx, before, after discord.Role)
	onGuildRoleDelete func(ctx StateCtx, before discord.Role, payload discord.GuildRoleDelete)

	onChannelCreate func(ctx StateCtx, channel discord.Channel)
	onChannelUpdate func(ctx StateCtx, before, after discord.Channel)
	onChannelDelete func(ctx StateCtx, before discord.Channel)

	onGuildBanAdd    func(ctx StateCtx, ban discord.GuildBanAdd)
	onGuildBanRemove func(ctx StateCtx, ban discord.GuildBanRemove)

	onMessageCreate func(ctx StateCtx, message discord.Message)
	onMessageUpdate func(ctx StateCtx, message discord.Message)
	onMessageDelete func(ctx StateCtx, payload discord.MessageDelete)

	onPresenceUpdate   func(ctx StateCtx, presence discord.PresenceUpdate)
	onTypingStart      func(ctx StateCtx, typing discord.TypingStart)
	onVoiceStateUpdate func(ctx StateCtx, voiceState discord.VoiceStateUpdate)

	onGuildMembersChunk func(ctx StateCtx, chunk discord.GuildMembersChunk)

	onUserUpdate func(ctx StateCtx, before, after discord.User)
}

func NewHandlers() *Handlers {
	return &Handlers{}
}

func (h *Handlers) OnReady(fn func(ctx StateCtx, ready discord.Ready)) {
	h.mu.Lock()
	h.onReady = fn
	h.mu.Unlock()
}

func (h *Handlers) OnResumed(fn func(ctx StateCtx)) {
	h.mu.Lock()
	h.onResumed = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildCreate(fn func(ctx StateCtx, guild discord.GuildCreate)) {
	h.mu.Lock()
	h.onGuildCreate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildUpdate(fn func(ctx StateCtx, before, after discord.Guild)) {
	h.mu.Lock()
	h.onGuildUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildDelete(fn func(ctx StateCtx, before discord.Guild, unavailable bool)) {
	h.mu.Lock()
	h.onGuildDelete = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildMemberAdd(fn func(ctx StateCtx, member discord.GuildMember)) {
	h.mu.Lock()
	h.onGuildMemberAdd = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildMemberUpdate(fn func(ctx StateCtx, before, after discord.GuildMember)) {
	h.mu.Lock()
	h.onGuildMemberUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildMemberRemove(fn func(ctx StateCtx, remove discord.GuildMemberRemove)) {
	h.mu.Lock()
	h.onGuildMemberRemove = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildRoleCreate(fn func(ctx StateCtx, role discord.Role)) {
	h.mu.Lock()
	h.onGuildRoleCreate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildRoleUpdate(fn func(ctx StateCtx, before, after discord.Role)) {
	h.mu.Lock()
	h.onGuildRoleUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildRoleDelete(fn func(ctx StateCtx, before discord.Role, payload discord.GuildRoleDelete)) {
	h.mu.Lock()
	h.onGuildRoleDelete = fn
	h.mu.Unlock()
}

func (h *Handlers) OnChannelCreate(fn func(ctx StateCtx, channel discord.Channel)) {
	h.mu.Lock()
	h.onChannelCreate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnChannelUpdate(fn func(ctx StateCtx, before, after discord.Channel)) {
	h.mu.Lock()
	h.onChannelUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnChannelDelete(fn func(ctx StateCtx, before discord.Channel)) {
	h.mu.Lock()
	h.onChannelDelete = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildBanAdd(fn func(ctx StateCtx, ban discord.GuildBanAdd)) {
	h.mu.Lock()
	h.onGuildBanAdd = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildBanRemove(fn func(ctx StateCtx, ban discord.GuildBanRemove)) {
	h.mu.Lock()
	h.onGuildBanRemove = fn
	h.mu.Unlock()
}

func (h *Handlers) OnMessageCreate(fn func(ctx StateCtx, message discord.Message)) {
	h.mu.Lock()
	h.onMessageCreate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnMessageUpdate(fn func(ctx StateCtx, message discord.Message)) {
	h.mu.Lock()
	h.onMessageUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnMessageDelete(fn func(ctx StateCtx, payload discord.MessageDelete)) {
	h.mu.Lock()
	h.onMessageDelete = fn
	h.mu.Unlock()
}

func (h *Handlers) OnPresenceUpdate(fn func(ctx StateCtx, presence discord.PresenceUpdate)) {
	h.mu.Lock()
	h.onPresenceUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnTypingStart(fn func(ctx StateCtx, typing discord.TypingStart)) {
	h.mu.Lock()
	h.onTypingStart = fn
	h.mu.Unlock()
}

func (h *Handlers) OnVoiceStateUpdate(fn func(ctx StateCtx, voiceState discord.VoiceStateUpdate)) {
	h.mu.Lock()
	h.onVoiceStateUpdate = fn
	h.mu.Unlock()
}

func (h *Handlers) OnGuildMembersChunk(fn func(ctx StateCtx, chunk discord.GuildMembersChunk)) {
	h.mu.Lock()
	h.onGuildMembersChunk = fn
	h.mu.Unlock()
}

func (h *Handlers) OnUserUpdate(fn func(ctx StateCtx, before, after discord.User)) {
	h.mu.Lock()
	h.onUserUpdate = fn
	h.mu.Unlock()
}
