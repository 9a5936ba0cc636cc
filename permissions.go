package concord

import (
	"fmt"

	"github.com/concord-labs/concord/discord"
)

// BasePermissions computes the guild wide permissions of a member from
// an already resolved role list. The owner holds every permission. The
// everyone role (sharing the guild id) applies to all members, then
// each of the member's roles unions in. Administrator grants every
// permission.
func BasePermissions(guild discord.Guild, member discord.GuildMember, roles []discord.Role) discord.Int64 {
	if member.User != nil && guild.OwnerID == member.User.ID {
		return discord.PermissionAll
	}

	var permissions discord.Int64

	for _, role := range roles {
		if role.ID == guild.ID {
			permissions |= role.Permissions
		}
	}

	for _, roleID := range member.Roles {
		for _, role := range roles {
			if role.ID == roleID {
				permissions |= role.Permissions
			}
		}
	}

	if permissions&discord.PermissionAdministrator == discord.PermissionAdministrator {
		return discord.PermissionAll
	}

	return permissions
}

// ApplyOverwrites layers the channel's permission overwrites onto a
// member's base permissions. Precedence is fixed: the everyone
// overwrite first, then the union of all role overwrites, then the
// member specific overwrite last. Each layer clears its denied bits
// before setting its allowed bits, so a member allow beats a role
// level deny. Administrators bypass overwrites entirely.
func ApplyOverwrites(base discord.Int64, member discord.GuildMember, channel discord.Channel) discord.Int64 {
	if base&discord.PermissionAdministrator == discord.PermissionAdministrator {
		return discord.PermissionAll
	}

	permissions := base

	var guildID discord.Snowflake
	if channel.GuildID != nil {
		guildID = *channel.GuildID
	}

	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.Type == discord.ChannelOverwriteTypeRole && overwrite.ID == guildID {
			permissions &^= overwrite.Deny
			permissions |= overwrite.Allow
		}
	}

	var allow, deny discord.Int64

	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.Type != discord.ChannelOverwriteTypeRole || overwrite.ID == guildID {
			continue
		}

		for _, roleID := range member.Roles {
			if overwrite.ID == roleID {
				allow |= overwrite.Allow
				deny |= overwrite.Deny

				break
			}
		}
	}

	permissions &^= deny
	permissions |= allow

	if member.User != nil {
		for _, overwrite := range channel.PermissionOverwrites {
			if overwrite.Type == discord.ChannelOverwriteTypeMember && overwrite.ID == member.User.ID {
				permissions &^= overwrite.Deny
				permissions |= overwrite.Allow
			}
		}
	}

	return permissions
}

// MemberPermissions resolves a member's effective permissions in a
// channel from the cache. A member role missing from the role cache is
// reported as ErrRoleNotFound: that is a state consistency failure,
// not a permission-denied result, and callers must not treat it as
// one.
func (ss *State) MemberPermissions(guildID, channelID, userID discord.Snowflake) (discord.Int64, error) {
	guild, ok := ss.GetGuild(guildID)
	if !ok {
		return 0, fmt.Errorf("guild %d: %w", guildID, ErrGuildNotFound)
	}

	member, ok := ss.GetGuildMember(guildID, userID)
	if !ok {
		return 0, fmt.Errorf("member %d in guild %d: %w", userID, guildID, ErrMemberNotFound)
	}

	for _, roleID := range member.Roles {
		if _, ok := ss.GetGuildRole(guildID, roleID); !ok {
			return 0, fmt.Errorf("role %d in guild %d: %w", roleID, guildID, ErrRoleNotFound)
		}
	}

	base := BasePermissions(guild, member, guild.Roles)

	channel, ok := ss.GetGuildChannel(guildID, channelID)
	if !ok {
		return 0, fmt.Errorf("channel %d in guild %d: %w", channelID, guildID, ErrChannelNotFound)
	}

	return ApplyOverwrites(base, member, channel), nil
}
