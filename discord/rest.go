package discord

import (
	"fmt"
	"net/http"
	"net/url"
)

// Outbound command surface. Every operation funnels through the
// session's RESTInterface, which is expected to be rate limited.

func CreateMessage(s *Session, channelID Snowflake, messageParams MessageParams) (*Message, error) {
	endpoint := fmt.Sprintf("/channels/%d/messages", channelID)

	var message Message

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, messageParams, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &message, nil
}

func EditMessage(s *Session, channelID, messageID Snowflake, messageParams MessageParams) (*Message, error) {
	endpoint := fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID)

	var message Message

	err := s.Interface.FetchJJ(s, http.MethodPatch, endpoint, messageParams, nil, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}

	return &message, nil
}

func DeleteMessage(s *Session, channelID, messageID Snowflake) error {
	endpoint := fmt.Sprintf("/channels/%d/messages/%d", channelID, messageID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}

func CreateReaction(s *Session, channelID, messageID Snowflake, emoji string) error {
	endpoint := fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/@me", channelID, messageID, url.PathEscape(emoji))

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create reaction: %w", err)
	}

	return nil
}

func DeleteOwnReaction(s *Session, channelID, messageID Snowflake, emoji string) error {
	endpoint := fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/@me", channelID, messageID, url.PathEscape(emoji))

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete own reaction: %w", err)
	}

	return nil
}

func DeleteUserReaction(s *Session, channelID, messageID, userID Snowflake, emoji string) error {
	endpoint := fmt.Sprintf("/channels/%d/messages/%d/reactions/%s/%d", channelID, messageID, url.PathEscape(emoji), userID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete user reaction: %w", err)
	}

	return nil
}

func CreateChannelInvite(s *Session, channelID Snowflake, inviteParams InviteParams) (*Invite, error) {
	endpoint := fmt.Sprintf("/channels/%d/invites", channelID)

	var invite Invite

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, inviteParams, nil, &invite)
	if err != nil {
		return nil, fmt.Errorf("failed to create channel invite: %w", err)
	}

	return &invite, nil
}

func EditChannelPermissions(s *Session, channelID Snowflake, overwrite ChannelOverwrite) error {
	endpoint := fmt.Sprintf("/channels/%d/permissions/%d", channelID, overwrite.ID)

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, overwrite, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to edit channel permissions: %w", err)
	}

	return nil
}

func DeleteChannelPermission(s *Session, channelID, overwriteID Snowflake) error {
	endpoint := fmt.Sprintf("/channels/%d/permissions/%d", channelID, overwriteID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete channel permission: %w", err)
	}

	return nil
}

func ModifyChannel(s *Session, channelID Snowflake, channelParams ChannelParams) (*Channel, error) {
	endpoint := fmt.Sprintf("/channels/%d", channelID)

	var channel Channel

	err := s.Interface.FetchJJ(s, http.MethodPatch, endpoint, channelParams, nil, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to modify channel: %w", err)
	}

	return &channel, nil
}

func DeleteChannel(s *Session, channelID Snowflake) error {
	endpoint := fmt.Sprintf("/channels/%d", channelID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	return nil
}

func TriggerTypingIndicator(s *Session, channelID Snowflake) error {
	endpoint := fmt.Sprintf("/channels/%d/typing", channelID)

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to trigger typing indicator: %w", err)
	}

	return nil
}

func PinMessage(s *Session, channelID, messageID Snowflake) error {
	endpoint := fmt.Sprintf("/channels/%d/pins/%d", channelID, messageID)

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}

	return nil
}

func ModifyGuild(s *Session, guildID Snowflake, guildParams GuildParams) (*Guild, error) {
	endpoint := fmt.Sprintf("/guilds/%d", guildID)

	var guild Guild

	err := s.Interface.FetchJJ(s, http.MethodPatch, endpoint, guildParams, nil, &guild)
	if err != nil {
		return nil, fmt.Errorf("failed to modify guild: %w", err)
	}

	return &guild, nil
}

func CreateGuildChannel(s *Session, guildID Snowflake, channelParams ChannelParams) (*Channel, error) {
	endpoint := fmt.Sprintf("/guilds/%d/channels", guildID)

	var channel Channel

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, channelParams, nil, &channel)
	if err != nil {
		return nil, fmt.Errorf("failed to create guild channel: %w", err)
	}

	return &channel, nil
}

func AddGuildMemberRole(s *Session, guildID, userID, roleID Snowflake) error {
	endpoint := fmt.Sprintf("/guilds/%d/members/%d/roles/%d", guildID, userID, roleID)

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to add guild member role: %w", err)
	}

	return nil
}

func RemoveGuildMemberRole(s *Session, guildID, userID, roleID Snowflake) error {
	endpoint := fmt.Sprintf("/guilds/%d/members/%d/roles/%d", guildID, userID, roleID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to remove guild member role: %w", err)
	}

	return nil
}

func CreateGuildBan(s *Session, guildID, userID Snowflake, deleteMessageDays int32) error {
	endpoint := fmt.Sprintf("/guilds/%d/bans/%d", guildID, userID)

	err := s.Interface.FetchJJ(s, http.MethodPut, endpoint, map[string]int32{
		"delete_message_days": deleteMessageDays,
	}, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create guild ban: %w", err)
	}

	return nil
}

func RemoveGuildBan(s *Session, guildID, userID Snowflake) error {
	endpoint := fmt.Sprintf("/guilds/%d/bans/%d", guildID, userID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to remove guild ban: %w", err)
	}

	return nil
}

// RemoveGuildMember kicks a member from a guild.
func RemoveGuildMember(s *Session, guildID, userID Snowflake) error {
	endpoint := fmt.Sprintf("/guilds/%d/members/%d", guildID, userID)

	err := s.Interface.FetchJJ(s, http.MethodDelete, endpoint, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to remove guild member: %w", err)
	}

	return nil
}

func BeginGuildPrune(s *Session, guildID Snowflake, pruneParams GuildPruneParams) (*GuildPrune, error) {
	endpoint := fmt.Sprintf("/guilds/%d/prune", guildID)

	var prune GuildPrune

	err := s.Interface.FetchJJ(s, http.MethodPost, endpoint, pruneParams, nil, &prune)
	if err != nil {
		return nil, fmt.Errorf("failed to begin guild prune: %w", err)
	}

	return &prune, nil
}

// GetGatewayBot fetches the recommended shard count and session start
// limit for the current token.
func GetGatewayBot(s *Session) (*GatewayBot, error) {
	var gatewayBot GatewayBot

	err := s.Interface.FetchJJ(s, http.MethodGet, "/gateway/bot", nil, nil, &gatewayBot)
	if err != nil {
		return nil, fmt.Errorf("failed to get gateway bot: %w", err)
	}

	return &gatewayBot, nil
}
