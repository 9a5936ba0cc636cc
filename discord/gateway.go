package discord

import "encoding/json"

// GatewayOp represents a packet operation.
type GatewayOp uint8

const (
	GatewayOpDispatch GatewayOp = iota
	GatewayOpHeartbeat
	GatewayOpIdentify
	GatewayOpStatusUpdate
	GatewayOpVoiceStateUpdate
	_
	GatewayOpResume
	GatewayOpReconnect
	GatewayOpRequestGuildMembers
	GatewayOpInvalidSession
	GatewayOpHello
	GatewayOpHeartbeatACK
)

// Close codes the gateway may terminate a connection with. A subset is
// unrecoverable and must not trigger a reconnect attempt.
const (
	CloseUnknownError = 4000 + iota
	CloseUnknownOpCode
	CloseDecodeError
	CloseNotAuthenticated
	CloseAuthenticationFailed
	CloseAlreadyAuthenticated
	_
	CloseInvalidSeq
	CloseRateLimited
	CloseSessionTimeout
	CloseInvalidShard
	CloseShardingRequired
	CloseInvalidAPIVersion
	CloseInvalidIntents
	CloseDisallowedIntents
)

// GatewayPayload represents the base payload received from the gateway.
type GatewayPayload struct {
	Data     json.RawMessage `json:"d"`
	Type     string          `json:"t"`
	Sequence int32           `json:"s"`
	Op       GatewayOp       `json:"op"`
}

// SentPayload represents a payload sent to the gateway.
type SentPayload struct {
	Data interface{} `json:"d"`
	Op   GatewayOp   `json:"op"`
}

// Hello represents the initial handshake frame from the gateway.
type Hello struct {
	HeartbeatInterval int32 `json:"heartbeat_interval"`
}

// Identify represents the initial handshake with the gateway.
type Identify struct {
	Properties     *IdentifyProperties `json:"properties,omitempty"`
	Presence       *UpdateStatus       `json:"presence,omitempty"`
	Token          string              `json:"token"`
	Shard          [2]int32            `json:"shard,omitempty"`
	LargeThreshold int32               `json:"large_threshold,omitempty"`
	Intents        int64               `json:"intents"`
	Compress       bool                `json:"compress,omitempty"`
}

// IdentifyProperties are the extra properties sent in the identify packet.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Resume resumes a dropped gateway connection.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int32  `json:"seq"`
}

// Ready represents when the client has completed the initial handshake.
type Ready struct {
	SessionID        string             `json:"session_id"`
	ResumeGatewayURL string             `json:"resume_gateway_url"`
	User             User               `json:"user"`
	Guilds           []UnavailableGuild `json:"guilds"`
	Version          int32              `json:"v"`
}

// RequestGuildMembers requests guild members from the gateway.
type RequestGuildMembers struct {
	Query     string        `json:"query"`
	Nonce     string        `json:"nonce"`
	UserIDs   SnowflakeList `json:"user_ids,omitempty"`
	GuildID   Snowflake     `json:"guild_id"`
	Limit     int32         `json:"limit"`
	Presences bool          `json:"presences"`
}

// GuildMembersChunk is the response to a guild members request.
type GuildMembersChunk struct {
	Nonce      string        `json:"nonce"`
	Members    []GuildMember `json:"members"`
	NotFound   SnowflakeList `json:"not_found,omitempty"`
	GuildID    Snowflake     `json:"guild_id"`
	ChunkIndex int32         `json:"chunk_index"`
	ChunkCount int32         `json:"chunk_count"`
}

// UpdateStatus updates the client status and current activity.
type UpdateStatus struct {
	Activities []Activity `json:"activities,omitempty"`
	Status     string     `json:"status"`
	Since      int32      `json:"since,omitempty"`
	AFK        bool       `json:"afk,omitempty"`
}

// Activity represents an activity as shown on someone's profile.
type Activity struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
	URL   string `json:"url,omitempty"`
	Type  int32  `json:"type"`
}

// GatewayBot represents the response of the gateway bot endpoint.
type GatewayBot struct {
	URL               string `json:"url"`
	Shards            int32  `json:"shards"`
	SessionStartLimit struct {
		Total          int32 `json:"total"`
		Remaining      int32 `json:"remaining"`
		ResetAfter     int32 `json:"reset_after"`
		MaxConcurrency int32 `json:"max_concurrency"`
	} `json:"session_start_limit"`
}
