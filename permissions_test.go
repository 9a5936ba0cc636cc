package concord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	concord "github.com/concord-labs/concord"
	"github.com/concord-labs/concord/discord"
)

func TestBasePermissionsOwner(t *testing.T) {
	t.Parallel()

	guild := discord.Guild{ID: 5, OwnerID: 42}
	member := testMember(42)

	permissions := concord.BasePermissions(guild, member, nil)

	assert.Equal(t, discord.Int64(discord.PermissionAll), permissions)
}

func TestBasePermissionsRoleUnion(t *testing.T) {
	t.Parallel()

	guild := discord.Guild{ID: 5, OwnerID: 1}
	member := testMember(42, 10, 11)

	roles := []discord.Role{
		// The everyone role shares the guild id and applies to all.
		{ID: 5, Permissions: discord.PermissionViewChannel},
		{ID: 10, Permissions: discord.PermissionSendMessages},
		{ID: 11, Permissions: discord.PermissionKickMembers},
		// Unheld roles contribute nothing.
		{ID: 12, Permissions: discord.PermissionBanMembers},
	}

	permissions := concord.BasePermissions(guild, member, roles)

	expected := discord.Int64(discord.PermissionViewChannel |
		discord.PermissionSendMessages |
		discord.PermissionKickMembers)

	assert.Equal(t, expected, permissions)
}

func TestBasePermissionsAdministrator(t *testing.T) {
	t.Parallel()

	guild := discord.Guild{ID: 5, OwnerID: 1}
	member := testMember(42, 10)

	roles := []discord.Role{
		{ID: 10, Permissions: discord.PermissionAdministrator},
	}

	permissions := concord.BasePermissions(guild, member, roles)

	assert.Equal(t, discord.Int64(discord.PermissionAll), permissions)
}

func TestApplyOverwritesEveryone(t *testing.T) {
	t.Parallel()

	member := testMember(42)

	channel := discord.Channel{
		ID:      100,
		GuildID: snowflakePtr(5),
		PermissionOverwrites: discord.List[discord.ChannelOverwrite]{
			{
				ID:   5,
				Type: discord.ChannelOverwriteTypeRole,
				Deny: discord.PermissionSendMessages,
			},
		},
	}

	base := discord.Int64(discord.PermissionViewChannel | discord.PermissionSendMessages)

	permissions := concord.ApplyOverwrites(base, member, channel)

	assert.Equal(t, discord.Int64(discord.PermissionViewChannel), permissions)
}

func TestApplyOverwritesMemberAllowBeatsRoleDeny(t *testing.T) {
	t.Parallel()

	member := testMember(42, 10)

	channel := discord.Channel{
		ID:      100,
		GuildID: snowflakePtr(5),
		PermissionOverwrites: discord.List[discord.ChannelOverwrite]{
			{
				ID:   10,
				Type: discord.ChannelOverwriteTypeRole,
				Deny: discord.PermissionSendMessages,
			},
			{
				ID:    42,
				Type:  discord.ChannelOverwriteTypeMember,
				Allow: discord.PermissionSendMessages,
			},
		},
	}

	base := discord.Int64(discord.PermissionViewChannel | discord.PermissionSendMessages)

	permissions := concord.ApplyOverwrites(base, member, channel)

	// The member overwrite is applied last and wins over the role deny.
	assert.Equal(t, base, permissions)
}

func TestApplyOverwritesRoleUnionBeforeApply(t *testing.T) {
	t.Parallel()

	member := testMember(42, 10, 11)

	// One held role denies sending, another allows it. Role overwrites
	// union first, and allows are applied after denies are cleared, so
	// the allow wins regardless of overwrite order.
	channel := discord.Channel{
		ID:      100,
		GuildID: snowflakePtr(5),
		PermissionOverwrites: discord.List[discord.ChannelOverwrite]{
			{
				ID:   10,
				Type: discord.ChannelOverwriteTypeRole,
				Deny: discord.PermissionSendMessages,
			},
			{
				ID:    11,
				Type:  discord.ChannelOverwriteTypeRole,
				Allow: discord.PermissionSendMessages,
			},
		},
	}

	base := discord.Int64(discord.PermissionViewChannel)

	permissions := concord.ApplyOverwrites(base, member, channel)

	assert.Equal(t, discord.Int64(discord.PermissionViewChannel|discord.PermissionSendMessages), permissions)
}

func TestApplyOverwritesAdministratorBypass(t *testing.T) {
	t.Parallel()

	member := testMember(42)

	channel := discord.Channel{
		ID:      100,
		GuildID: snowflakePtr(5),
		PermissionOverwrites: discord.List[discord.ChannelOverwrite]{
			{
				ID:   42,
				Type: discord.ChannelOverwriteTypeMember,
				Deny: discord.PermissionAll,
			},
		},
	}

	base := discord.Int64(discord.PermissionAdministrator)

	permissions := concord.ApplyOverwrites(base, member, channel)

	assert.Equal(t, discord.Int64(discord.PermissionAll), permissions)
}

func TestMemberPermissionsFromState(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	guild := discord.Guild{
		ID:      5,
		OwnerID: 1,
		Roles: discord.List[discord.Role]{
			{ID: 5, Permissions: discord.PermissionViewChannel},
			{ID: 10, Permissions: discord.PermissionSendMessages},
		},
		Channels: discord.List[discord.Channel]{
			{
				ID:      100,
				GuildID: snowflakePtr(5),
				PermissionOverwrites: discord.List[discord.ChannelOverwrite]{
					{
						ID:   10,
						Type: discord.ChannelOverwriteTypeRole,
						Deny: discord.PermissionSendMessages,
					},
				},
			},
		},
	}

	state.SetGuild(ctx, guild)
	state.SetGuildMember(ctx, 5, testMember(42, 10))

	permissions, err := state.MemberPermissions(5, 100, 42)
	assert.NoError(t, err)
	assert.Equal(t, discord.Int64(discord.PermissionViewChannel), permissions)
}

func TestMemberPermissionsResolutionErrors(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	_, err := state.MemberPermissions(5, 100, 42)
	assert.ErrorIs(t, err, concord.ErrGuildNotFound)

	state.SetGuild(ctx, testGuild(5))

	_, err = state.MemberPermissions(5, 100, 42)
	assert.ErrorIs(t, err, concord.ErrMemberNotFound)

	// A member holding a role the cache has never seen is a
	// consistency failure, not an empty permission set.
	state.SetGuildMember(ctx, 5, testMember(42, 999))

	_, err = state.MemberPermissions(5, 100, 42)
	assert.ErrorIs(t, err, concord.ErrRoleNotFound)

	state.SetGuildRole(5, discord.Role{ID: 999})

	_, err = state.MemberPermissions(5, 999, 42)
	assert.ErrorIs(t, err, concord.ErrChannelNotFound)
}
