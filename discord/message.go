package discord

// MessageType represents the type of message that has been sent.
type MessageType uint8

const (
	MessageTypeDefault MessageType = iota
	MessageTypeRecipientAdd
	MessageTypeRecipientRemove
	MessageTypeCall
	MessageTypeChannelNameChange
	MessageTypeChannelIconChange
	MessageTypeChannelPinnedMessage
	MessageTypeGuildMemberJoin
)

// Message represents a message on discord.
type Message struct {
	Author          *User          `json:"author,omitempty"`
	Member          *GuildMember   `json:"member,omitempty"`
	GuildID         *Snowflake     `json:"guild_id,omitempty"`
	EditedTimestamp *Timestamp     `json:"edited_timestamp,omitempty"`
	Content         string         `json:"content"`
	Timestamp       Timestamp      `json:"timestamp"`
	Mentions        List[User]     `json:"mentions,omitempty"`
	MentionRoles    SnowflakeList  `json:"mention_roles,omitempty"`
	Embeds          List[Embed]    `json:"embeds,omitempty"`
	Reactions       List[Reaction] `json:"reactions,omitempty"`
	ID              Snowflake      `json:"id"`
	ChannelID       Snowflake      `json:"channel_id"`
	Type            MessageType    `json:"type"`
	TTS             bool           `json:"tts"`
	MentionEveryone bool           `json:"mention_everyone"`
	Pinned          bool           `json:"pinned"`
}

// MessageParams is the accepted arguments for creating and editing messages.
type MessageParams struct {
	Content string      `json:"content,omitempty"`
	Embeds  List[Embed] `json:"embeds,omitempty"`
	TTS     bool        `json:"tts,omitempty"`
}

// Reaction represents a reaction to a message on discord.
type Reaction struct {
	Emoji Emoji `json:"emoji"`
	Count int32 `json:"count"`
	Me    bool  `json:"me"`
}

// Emoji represents an emoji on discord. Unicode emoji carry a nil ID.
type Emoji struct {
	User     *User      `json:"user,omitempty"`
	GuildID  *Snowflake `json:"guild_id,omitempty"`
	Name     string     `json:"name"`
	Roles    SnowflakeList `json:"roles,omitempty"`
	ID       Snowflake  `json:"id"`
	Animated bool       `json:"animated"`
	Managed  bool       `json:"managed"`
}

// Embed represents a message embed.
type Embed struct {
	Title       string    `json:"title,omitempty"`
	Type        string    `json:"type,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Timestamp   Timestamp `json:"timestamp,omitempty"`
	Color       int32     `json:"color,omitempty"`
}
