package discord

// User represents a user on discord. A User carries one identity; a
// GuildMember binds that identity to a single guild.
type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	GlobalName    string    `json:"global_name,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Locale        string    `json:"locale,omitempty"`
	Email         string    `json:"email,omitempty"`
	PublicFlags   int32     `json:"public_flags,omitempty"`
	Bot           bool      `json:"bot"`
	System        bool      `json:"system,omitempty"`
	MFAEnabled    bool      `json:"mfa_enabled,omitempty"`
	Verified      bool      `json:"verified,omitempty"`
}
