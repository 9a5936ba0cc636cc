package discord

// VerificationLevel represents the level of verification a guild requires.
type VerificationLevel uint8

const (
	VerificationLevelNone VerificationLevel = iota
	VerificationLevelLow
	VerificationLevelMedium
	VerificationLevelHigh
	VerificationLevelVeryHigh
)

// MessageNotificationLevel represents a guild's default notification level.
type MessageNotificationLevel uint8

const (
	MessageNotificationsAllMessages MessageNotificationLevel = iota
	MessageNotificationsOnlyMentions
)

// ExplicitContentFilterLevel represents the level of explicit content filtering.
type ExplicitContentFilterLevel uint8

const (
	ExplicitContentFilterDisabled ExplicitContentFilterLevel = iota
	ExplicitContentFilterMembersWithoutRoles
	ExplicitContentFilterAllMembers
)

// Guild represents a guild on discord. Collections carried on bulk
// create payloads are split out into their own caches once stored.
type Guild struct {
	AFKChannelID                *Snowflake                 `json:"afk_channel_id,omitempty"`
	AFKTimeout                  *int32                     `json:"afk_timeout,omitempty"`
	MemberCount                 *int32                     `json:"member_count,omitempty"`
	Icon                        string                     `json:"icon,omitempty"`
	Name                        string                     `json:"name"`
	Region                      string                     `json:"region,omitempty"`
	Description                 string                     `json:"description,omitempty"`
	JoinedAt                    Timestamp                  `json:"joined_at,omitempty"`
	Features                    StringList                 `json:"features,omitempty"`
	Roles                       List[Role]                 `json:"roles,omitempty"`
	Members                     List[GuildMember]          `json:"members,omitempty"`
	Channels                    List[Channel]              `json:"channels,omitempty"`
	ID                          Snowflake                  `json:"id"`
	OwnerID                     Snowflake                  `json:"owner_id"`
	VerificationLevel           VerificationLevel          `json:"verification_level"`
	DefaultMessageNotifications MessageNotificationLevel   `json:"default_message_notifications"`
	ExplicitContentFilter       ExplicitContentFilterLevel `json:"explicit_content_filter"`
	Large                       bool                       `json:"large"`
	Unavailable                 bool                       `json:"unavailable"`
}

// UnavailableGuild represents an unavailable guild.
type UnavailableGuild struct {
	ID          Snowflake `json:"id"`
	Unavailable bool      `json:"unavailable"`
}

// GuildMember binds a user to a single guild, with guild-scoped
// nickname, roles and voice flags. Role ids always reference roles
// owned by the same guild.
type GuildMember struct {
	User     *User         `json:"user,omitempty"`
	GuildID  *Snowflake    `json:"guild_id,omitempty"`
	Nick     *string       `json:"nick,omitempty"`
	Roles    SnowflakeList `json:"roles"`
	JoinedAt Timestamp     `json:"joined_at"`
	Deaf     bool          `json:"deaf"`
	Mute     bool          `json:"mute"`
}

// Role represents a role on discord. The everyone role shares the id of
// its guild. The permission bitmask is allow only.
type Role struct {
	GuildID     *Snowflake `json:"guild_id,omitempty"`
	Name        string     `json:"name"`
	ID          Snowflake  `json:"id"`
	Permissions Int64      `json:"permissions"`
	Color       int32      `json:"color"`
	Position    int32      `json:"position"`
	Hoist       bool       `json:"hoist"`
	Managed     bool       `json:"managed"`
	Mentionable bool       `json:"mentionable"`
}

// GuildParams is the set of mutable guild fields for modify calls.
// Nil fields are left untouched by the remote.
type GuildParams struct {
	Name                        *string                     `json:"name,omitempty"`
	Region                      *string                     `json:"region,omitempty"`
	VerificationLevel           *VerificationLevel          `json:"verification_level,omitempty"`
	DefaultMessageNotifications *MessageNotificationLevel   `json:"default_message_notifications,omitempty"`
	ExplicitContentFilter       *ExplicitContentFilterLevel `json:"explicit_content_filter,omitempty"`
	AFKChannelID                *Snowflake                  `json:"afk_channel_id,omitempty"`
	AFKTimeout                  *int32                      `json:"afk_timeout,omitempty"`
}

// GuildPruneParams controls a guild prune operation.
type GuildPruneParams struct {
	Days              int32         `json:"days"`
	IncludeRoles      SnowflakeList `json:"include_roles,omitempty"`
	ComputePruneCount bool          `json:"compute_prune_count"`
}

// GuildPrune is the reply to a guild prune operation.
type GuildPrune struct {
	Pruned *int32 `json:"pruned"`
}

// GuildBan represents a ban entry.
type GuildBan struct {
	User   User   `json:"user"`
	Reason string `json:"reason,omitempty"`
}
