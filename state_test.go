package concord_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	concord "github.com/concord-labs/concord"
	"github.com/concord-labs/concord/discord"
)

func testCtx() concord.StateCtx {
	return concord.StateCtx{
		CacheUsers:   true,
		CacheMembers: true,
		StoreMutuals: true,
	}
}

func snowflakePtr(s discord.Snowflake) *discord.Snowflake {
	return &s
}

func testGuild(id discord.Snowflake) discord.Guild {
	return discord.Guild{
		ID:      id,
		Name:    "test guild",
		OwnerID: 1,
		Roles: discord.List[discord.Role]{
			{ID: id, Name: "@everyone", Permissions: discord.PermissionViewChannel},
			{ID: 10, Name: "moderator", Permissions: discord.PermissionKickMembers},
		},
		Channels: discord.List[discord.Channel]{
			{ID: 100, Name: "general", GuildID: snowflakePtr(id)},
		},
	}
}

func testMember(userID discord.Snowflake, roles ...discord.Snowflake) discord.GuildMember {
	return discord.GuildMember{
		User:  &discord.User{ID: userID, Username: "member"},
		Roles: roles,
	}
}

func TestSetGuildSplitsCollections(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	state.SetGuild(ctx, testGuild(5))

	// The stored guild entry keeps no collections of its own.
	stored, ok := state.Guilds.Load(5)
	assert.True(t, ok)
	assert.Nil(t, stored.Roles)
	assert.Nil(t, stored.Channels)

	// Reads reassemble the collections from their own caches.
	guild, ok := state.GetGuild(5)
	assert.True(t, ok)
	assert.Len(t, guild.Roles, 2)
	assert.Len(t, guild.Channels, 1)

	role, ok := state.GetGuildRole(5, 10)
	assert.True(t, ok)
	assert.Equal(t, "moderator", role.Name)

	channel, ok := state.GetGuildChannel(5, 100)
	assert.True(t, ok)
	assert.Equal(t, "general", channel.Name)
}

func TestUpdateGuildPartialMerge(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	memberCount := int32(250)

	state.SetGuild(ctx, discord.Guild{
		ID:          5,
		Name:        "before",
		OwnerID:     1,
		MemberCount: &memberCount,
	})

	// A partial update without a name or member count leaves the
	// cached values untouched.
	before := state.UpdateGuild(ctx, discord.Guild{
		ID:     5,
		Region: "us-east",
	})

	assert.Equal(t, "before", before.Name)

	after, ok := state.GetGuild(5)
	assert.True(t, ok)
	assert.Equal(t, "before", after.Name)
	assert.Equal(t, "us-east", after.Region)
	assert.NotNil(t, after.MemberCount)
	assert.Equal(t, int32(250), *after.MemberCount)
}

func TestGetOrCreateGuildPlaceholder(t *testing.T) {
	t.Parallel()

	state := concord.NewState()

	guild := state.GetOrCreateGuild(9)

	assert.Equal(t, discord.Snowflake(9), guild.ID)
	assert.True(t, guild.Unavailable)
}

func TestRemoveGuildCascades(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	guild := testGuild(5)
	guild.Members = discord.List[discord.GuildMember]{testMember(42, 10)}

	state.SetGuild(ctx, guild)

	_, ok := state.GetGuildMember(5, 42)
	assert.True(t, ok)

	mutuals, ok := state.GetUserMutualGuilds(42)
	assert.True(t, ok)
	assert.Contains(t, mutuals, discord.Snowflake(5))

	state.RemoveGuild(ctx, 5)

	_, ok = state.GetGuild(5)
	assert.False(t, ok)

	_, ok = state.GetGuildMember(5, 42)
	assert.False(t, ok)

	_, ok = state.GetGuildRole(5, 10)
	assert.False(t, ok)

	_, ok = state.GetGuildChannel(5, 100)
	assert.False(t, ok)

	mutuals, _ = state.GetUserMutualGuilds(42)
	assert.NotContains(t, mutuals, discord.Snowflake(5))
}

func TestRemoveGuildRoleCascadesToMembers(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	state.SetGuild(ctx, testGuild(5))
	state.SetGuildMember(ctx, 5, testMember(42, 10, 5))
	state.SetGuildMember(ctx, 5, testMember(43, 10))

	state.RemoveGuildRole(5, 10)

	_, ok := state.GetGuildRole(5, 10)
	assert.False(t, ok)

	// Deleting a role strips it from every member holding it.
	member, ok := state.GetGuildMember(5, 42)
	assert.True(t, ok)
	assert.Equal(t, discord.SnowflakeList{5}, member.Roles)

	member, ok = state.GetGuildMember(5, 43)
	assert.True(t, ok)
	assert.Empty(t, member.Roles)
}

func TestUpdateGuildMemberPartialMerge(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	nick := "nickname"

	member := testMember(42, 10)
	member.Nick = &nick

	state.SetGuildMember(ctx, 5, member)

	// An update without a nick keeps the cached one.
	state.UpdateGuildMember(ctx, 5, testMember(42, 10, 11))

	after, ok := state.GetGuildMember(5, 42)
	assert.True(t, ok)
	assert.NotNil(t, after.Nick)
	assert.Equal(t, "nickname", *after.Nick)
	assert.Equal(t, discord.SnowflakeList{10, 11}, after.Roles)
}

func TestUpdateGuildChannelPartialMerge(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	topic := "old"

	state.SetGuildChannel(ctx, 5, discord.Channel{
		ID:      100,
		Name:    "general",
		GuildID: snowflakePtr(5),
		Topic:   &topic,
	})

	// An update carrying only a name leaves the cached topic alone.
	before := state.UpdateGuildChannel(ctx, 5, discord.Channel{
		ID:      100,
		Name:    "general-renamed",
		GuildID: snowflakePtr(5),
	})
	assert.Equal(t, "general", before.Name)

	after, ok := state.GetGuildChannel(5, 100)
	assert.True(t, ok)
	assert.Equal(t, "general-renamed", after.Name)
	assert.NotNil(t, after.Topic)
	assert.Equal(t, "old", *after.Topic)
}

func TestCachingFlagsRespected(t *testing.T) {
	t.Parallel()

	state := concord.NewState()

	ctx := concord.StateCtx{
		CacheUsers:   false,
		CacheMembers: false,
		StoreMutuals: false,
	}

	state.SetGuildMember(ctx, 5, testMember(42))

	_, ok := state.GetGuildMember(5, 42)
	assert.False(t, ok)

	_, ok = state.GetUser(42)
	assert.False(t, ok)
}

func TestDMChannels(t *testing.T) {
	t.Parallel()

	state := concord.NewState()

	state.AddDMChannel(42, discord.Channel{ID: 900, Type: discord.ChannelTypeDM})

	channel, ok := state.GetDMChannel(900)
	assert.True(t, ok)
	assert.Equal(t, discord.Snowflake(900), channel.ID)

	state.RemoveDMChannelByUserID(42)

	_, ok = state.GetDMChannel(900)
	assert.False(t, ok)
}

func TestMemberUserPopulatedFromUserCache(t *testing.T) {
	t.Parallel()

	state := concord.NewState()
	ctx := testCtx()

	state.SetGuildMember(ctx, 5, testMember(42))

	// The user cache holds the freshest copy of the user.
	state.SetUser(ctx, discord.User{ID: 42, Username: "renamed"})

	member, ok := state.GetGuildMember(5, 42)
	assert.True(t, ok)
	assert.Equal(t, "renamed", member.User.Username)
}
