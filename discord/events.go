package discord

// Dispatch event payloads. Most events reuse the entity shape they
// describe; the aliases below exist so handler signatures read clearly.

type GuildCreate struct {
	Guild
	Lazy bool `json:"-"`
}

type GuildUpdate = Guild

type GuildDelete = UnavailableGuild

type ChannelCreate = Channel

type ChannelUpdate = Channel

type ChannelDelete = Channel

type MessageCreate = Message

type MessageUpdate = Message

type MessageDelete struct {
	GuildID   *Snowflake `json:"guild_id,omitempty"`
	ID        Snowflake  `json:"id"`
	ChannelID Snowflake  `json:"channel_id"`
}

type GuildMemberAdd struct {
	GuildMember
	GuildID Snowflake `json:"guild_id"`
}

type GuildMemberUpdate = GuildMemberAdd

type GuildMemberRemove struct {
	User    User      `json:"user"`
	GuildID Snowflake `json:"guild_id"`
}

type GuildRoleCreate struct {
	Role    Role      `json:"role"`
	GuildID Snowflake `json:"guild_id"`
}

type GuildRoleUpdate = GuildRoleCreate

type GuildRoleDelete struct {
	GuildID Snowflake `json:"guild_id"`
	RoleID  Snowflake `json:"role_id"`
}

type GuildBanAdd struct {
	User    User      `json:"user"`
	GuildID Snowflake `json:"guild_id"`
}

type GuildBanRemove = GuildBanAdd

type PresenceUpdate struct {
	User       User       `json:"user"`
	Status     string     `json:"status"`
	Activities []Activity `json:"activities,omitempty"`
	GuildID    Snowflake  `json:"guild_id"`
}

type TypingStart struct {
	Member    *GuildMember `json:"member,omitempty"`
	GuildID   *Snowflake   `json:"guild_id,omitempty"`
	ChannelID Snowflake    `json:"channel_id"`
	UserID    Snowflake    `json:"user_id"`
	Timestamp int64        `json:"timestamp"`
}

type VoiceStateUpdate struct {
	Member    *GuildMember `json:"member,omitempty"`
	GuildID   *Snowflake   `json:"guild_id,omitempty"`
	SessionID string       `json:"session_id"`
	ChannelID Snowflake    `json:"channel_id"`
	UserID    Snowflake    `json:"user_id"`
	Deaf      bool         `json:"deaf"`
	Mute      bool         `json:"mute"`
	SelfDeaf  bool         `json:"self_deaf"`
	SelfMute  bool         `json:"self_mute"`
}
