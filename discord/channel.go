package discord

// ChannelType represents a channel's type.
type ChannelType uint8

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
)

// ChannelOverwriteType signifies the target of a permission overwrite.
type ChannelOverwriteType uint8

const (
	ChannelOverwriteTypeRole ChannelOverwriteType = iota
	ChannelOverwriteTypeMember
)

// ChannelOverwrite is a per-channel permission exception targeting
// either a role or a single member.
type ChannelOverwrite struct {
	ID    Snowflake            `json:"id"`
	Type  ChannelOverwriteType `json:"type"`
	Allow Int64                `json:"allow"`
	Deny  Int64                `json:"deny"`
}

// Channel represents a text, voice, category or DM channel. GuildID is
// absent for DM channels. Pointer fields are patchable: update payloads
// omit fields that did not change.
type Channel struct {
	GuildID              *Snowflake             `json:"guild_id,omitempty"`
	Topic                *string                `json:"topic,omitempty"`
	NSFW                 *bool                  `json:"nsfw,omitempty"`
	Bitrate              *int32                 `json:"bitrate,omitempty"`
	UserLimit            *int32                 `json:"user_limit,omitempty"`
	ParentID             *Snowflake             `json:"parent_id,omitempty"`
	Position             *int32                 `json:"position,omitempty"`
	Name                 string                 `json:"name,omitempty"`
	PermissionOverwrites List[ChannelOverwrite] `json:"permission_overwrites,omitempty"`
	Recipients           List[User]             `json:"recipients,omitempty"`
	ID                   Snowflake              `json:"id"`
	Type                 ChannelType            `json:"type"`
}

// ChannelParams is the set of mutable channel fields.
type ChannelParams struct {
	Name                 *string                `json:"name,omitempty"`
	Topic                *string                `json:"topic,omitempty"`
	NSFW                 *bool                  `json:"nsfw,omitempty"`
	Position             *int32                 `json:"position,omitempty"`
	Bitrate              *int32                 `json:"bitrate,omitempty"`
	UserLimit            *int32                 `json:"user_limit,omitempty"`
	ParentID             *Snowflake             `json:"parent_id,omitempty"`
	PermissionOverwrites List[ChannelOverwrite] `json:"permission_overwrites,omitempty"`
	Type                 ChannelType            `json:"type,omitempty"`
}

// InviteParams controls invite creation.
type InviteParams struct {
	MaxAge    int32 `json:"max_age"`
	MaxUses   int32 `json:"max_uses"`
	Temporary bool  `json:"temporary"`
	Unique    bool  `json:"unique"`
}

// Invite represents a created channel invite.
type Invite struct {
	Code      string     `json:"code"`
	Guild     *Guild     `json:"guild,omitempty"`
	Channel   *Channel   `json:"channel,omitempty"`
	Inviter   *User      `json:"inviter,omitempty"`
	ExpiresAt *Timestamp `json:"expires_at,omitempty"`
	Uses      int32      `json:"uses,omitempty"`
	MaxUses   int32      `json:"max_uses,omitempty"`
	MaxAge    int32      `json:"max_age,omitempty"`
	Temporary bool       `json:"temporary,omitempty"`
}
