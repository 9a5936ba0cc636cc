package concord

import (
	"context"
	"time"

	"github.com/concord-labs/concord/discord"
	"github.com/concord-labs/concord/pkg/cache"
)

// Time a cached DM channel stays resolvable without being touched.
const dmChannelExpiration = 30 * time.Minute

// StateCtx carries the caching flags of the owning client alongside the
// shard an event arrived on.
type StateCtx struct {
	CacheUsers   bool
	CacheMembers bool
	Stateless    bool
	StoreMutuals bool

	context context.Context
	*Shard
}

// State stores every entity seen across all shards. Reads are
// concurrent; structural mutations are exclusive per key only, so
// events for unrelated guilds never serialize against each other.
type State struct {
	Guilds cache.Cache[discord.Snowflake, discord.Guild]

	GuildMembers cache.DoubleCache[discord.Snowflake, discord.Snowflake, discord.GuildMember]

	GuildChannels cache.DoubleCache[discord.Snowflake, discord.Snowflake, discord.Channel]

	GuildRoles cache.DoubleCache[discord.Snowflake, discord.Snowflake, discord.Role]

	Users cache.Cache[discord.Snowflake, StateUser]

	DmChannels cache.Cache[discord.Snowflake, StateDMChannel]

	Mutuals cache.DoubleCache[discord.Snowflake, discord.Snowflake, struct{}]
}

func NewState() *State {
	return &State{
		Guilds: cache.New[discord.Snowflake, discord.Guild](100),

		GuildMembers: cache.NewDouble[discord.Snowflake, discord.Snowflake, discord.GuildMember](100, 50),

		GuildChannels: cache.NewDouble[discord.Snowflake, discord.Snowflake, discord.Channel](100, 50),

		GuildRoles: cache.NewDouble[discord.Snowflake, discord.Snowflake, discord.Role](100, 50),

		Users: cache.New[discord.Snowflake, StateUser](100),

		DmChannels: cache.New[discord.Snowflake, StateDMChannel](50),

		Mutuals: cache.NewDouble[discord.Snowflake, discord.Snowflake, struct{}](100, 50),
	}
}

//
// Guild Operations
//

// GetGuild returns the guild with the same ID from the cache, with its
// role and channel collections reassembled from their own caches.
func (ss *State) GetGuild(guildID discord.Snowflake) (guild discord.Guild, ok bool) {
	guild, ok = ss.Guilds.Load(guildID)

	if !ok {
		return
	}

	if roles, ok := ss.GetAllGuildRoles(guildID); ok {
		guild.Roles = roles
	} else {
		guild.Roles = make([]discord.Role, 0)
	}

	if channels, ok := ss.GetAllGuildChannels(guildID); ok {
		guild.Channels = channels
	} else {
		guild.Channels = make([]discord.Channel, 0)
	}

	return guild, true
}

// SetGuild creates or updates a guild entry in the cache. Collections
// carried on the payload are split into their own caches and dropped
// from the stored guild.
func (ss *State) SetGuild(ctx StateCtx, guild discord.Guild) {
	for _, role := range guild.Roles {
		ss.SetGuildRole(guildIDFallback(role.GuildID, guild.ID), role)
	}

	for _, channel := range guild.Channels {
		ss.SetGuildChannel(ctx, guild.ID, channel)
	}

	for _, member := range guild.Members {
		ss.SetGuildMember(ctx, guild.ID, member)
	}

	guild.Roles = nil
	guild.Channels = nil
	guild.Members = nil

	ss.Guilds.Store(guild.ID, guild)

	if !ctx.Stateless && ctx.Shard != nil {
		ctx.Guilds.Store(guild.ID, struct{}{})
	}
}

// GetOrCreateGuild returns the cached guild, default-initializing an
// entry when a guild is referenced before its create event arrives.
func (ss *State) GetOrCreateGuild(guildID discord.Snowflake) discord.Guild {
	if guild, ok := ss.Guilds.Load(guildID); ok {
		return guild
	}

	ss.Guilds.SetIfAbsent(guildID, discord.Guild{ID: guildID, Unavailable: true})

	guild, _ := ss.Guilds.Load(guildID)

	return guild
}

// UpdateGuild merges a partial guild update into the cached guild.
// Absent fields on the payload leave cached values untouched.
func (ss *State) UpdateGuild(ctx StateCtx, guild discord.Guild) (before discord.Guild) {
	before = ss.GetOrCreateGuild(guild.ID)

	ss.SetGuild(ctx, mergeGuild(before, guild))

	return before
}

// RemoveGuild removes a guild and everything scoped to it from the
// cache.
func (ss *State) RemoveGuild(ctx StateCtx, guildID discord.Snowflake) {
	ss.Guilds.Delete(guildID)

	if !ctx.Stateless && ctx.Shard != nil {
		ctx.Guilds.Delete(guildID)
	}

	if members, ok := ss.GuildMembers.Inner(guildID); ok {
		members.Range(func(userID discord.Snowflake, _ discord.GuildMember) bool {
			ss.Mutuals.Delete(userID, guildID)
			return false
		})
	}

	ss.RemoveAllGuildRoles(guildID)
	ss.RemoveAllGuildChannels(guildID)
	ss.RemoveAllGuildMembers(guildID)
}

//
// GuildMember Operations
//

// GetGuildMember returns the guildMember with the same ID from the
// cache, with the user field populated from the user cache.
func (ss *State) GetGuildMember(guildID, userID discord.Snowflake) (guildMember discord.GuildMember, ok bool) {
	guildMember, ok = ss.GuildMembers.Load(guildID, userID)

	if !ok {
		return
	}

	if guildMember.User != nil {
		if user, ok := ss.GetUser(guildMember.User.ID); ok {
			guildMember.User = &user
		}
	}

	return
}

// SetGuildMember creates or updates a guildMember entry in the cache
// and caches the attached user.
func (ss *State) SetGuildMember(ctx StateCtx, guildID discord.Snowflake, guildMember discord.GuildMember) {
	if guildMember.User == nil {
		return
	}

	// The member of the bot itself is always cached.
	if !ctx.CacheMembers && !ss.isSelf(ctx, guildMember.User.ID) {
		return
	}

	ss.GuildMembers.Store(guildID, guildMember.User.ID, guildMember)

	ss.SetUser(ctx, *guildMember.User)

	if ctx.StoreMutuals {
		ss.Mutuals.Store(guildMember.User.ID, guildID, struct{}{})
	}
}

// UpdateGuildMember merges a partial member update into the cached
// member.
func (ss *State) UpdateGuildMember(ctx StateCtx, guildID discord.Snowflake, guildMember discord.GuildMember) (before discord.GuildMember) {
	if guildMember.User == nil {
		return
	}

	before, ok := ss.GuildMembers.Load(guildID, guildMember.User.ID)
	if !ok {
		ss.SetGuildMember(ctx, guildID, guildMember)

		return
	}

	ss.SetGuildMember(ctx, guildID, mergeGuildMember(before, guildMember))

	return before
}

// RemoveGuildMember removes a guildMember from the cache and releases
// the member-guild pairing.
func (ss *State) RemoveGuildMember(guildID, userID discord.Snowflake) {
	ss.GuildMembers.Delete(guildID, userID)
	ss.Mutuals.Delete(userID, guildID)
}

// GetAllGuildMembers returns all guildMembers of a specific guild from the cache.
func (ss *State) GetAllGuildMembers(guildID discord.Snowflake) (guildMembersList []discord.GuildMember, ok bool) {
	guildMembers, ok := ss.GuildMembers.Inner(guildID)

	if !ok {
		return
	}

	guildMembersList = make([]discord.GuildMember, 0, guildMembers.Count())

	guildMembers.Range(func(_ discord.Snowflake, guildMember discord.GuildMember) bool {
		guildMembersList = append(guildMembersList, guildMember)
		return false
	})

	return guildMembersList, true
}

// RemoveAllGuildMembers removes all guildMembers of a specific guild from the cache.
func (ss *State) RemoveAllGuildMembers(guildID discord.Snowflake) {
	ss.GuildMembers.ClearKey(guildID)
}

//
// Role Operations
//

// GetGuildRole returns the role with the same ID from the cache.
func (ss *State) GetGuildRole(guildID, roleID discord.Snowflake) (role discord.Role, ok bool) {
	return ss.GuildRoles.Load(guildID, roleID)
}

// SetGuildRole creates or updates a role entry in the cache.
func (ss *State) SetGuildRole(guildID discord.Snowflake, role discord.Role) {
	ss.GuildRoles.Store(guildID, role.ID, role)
}

// RemoveGuildRole removes a role from the cache and strips the role id
// from every cached member of the guild, so member role lists never
// reference a role the guild no longer has.
func (ss *State) RemoveGuildRole(guildID, roleID discord.Snowflake) {
	ss.GuildRoles.Delete(guildID, roleID)

	members, ok := ss.GuildMembers.Inner(guildID)
	if !ok {
		return
	}

	affected := make([]discord.Snowflake, 0)

	members.Range(func(userID discord.Snowflake, member discord.GuildMember) bool {
		for _, id := range member.Roles {
			if id == roleID {
				affected = append(affected, userID)
				break
			}
		}
		return false
	})

	for _, userID := range affected {
		members.Update(userID, func(member discord.GuildMember) discord.GuildMember {
			roles := make(discord.SnowflakeList, 0, len(member.Roles))

			for _, id := range member.Roles {
				if id != roleID {
					roles = append(roles, id)
				}
			}

			member.Roles = roles

			return member
		})
	}
}

// GetAllGuildRoles returns all guildRoles of a specific guild from the cache.
func (ss *State) GetAllGuildRoles(guildID discord.Snowflake) (guildRolesList []discord.Role, ok bool) {
	guildRoles, ok := ss.GuildRoles.Inner(guildID)

	if !ok {
		return
	}

	guildRolesList = make([]discord.Role, 0, guildRoles.Count())

	guildRoles.Range(func(id discord.Snowflake, role discord.Role) bool {
		if role.ID == 0 {
			role.ID = id
		}

		guildRolesList = append(guildRolesList, role)
		return false
	})

	return guildRolesList, true
}

// RemoveAllGuildRoles removes all guild roles of a specific guild from the cache.
func (ss *State) RemoveAllGuildRoles(guildID discord.Snowflake) {
	ss.GuildRoles.ClearKey(guildID)
}

//
// Channel Operations
//

// GetGuildChannel returns the channel with the same ID from the cache.
func (ss *State) GetGuildChannel(guildID, channelID discord.Snowflake) (guildChannel discord.Channel, ok bool) {
	return ss.GuildChannels.Load(guildID, channelID)
}

// SetGuildChannel creates or updates a channel entry in the cache.
func (ss *State) SetGuildChannel(ctx StateCtx, guildID discord.Snowflake, channel discord.Channel) {
	channel.GuildID = &guildID

	ss.GuildChannels.Store(guildID, channel.ID, channel)

	for _, recipient := range channel.Recipients {
		ss.SetUser(ctx, recipient)
	}
}

// UpdateGuildChannel merges a partial channel update into the cached
// channel.
func (ss *State) UpdateGuildChannel(ctx StateCtx, guildID discord.Snowflake, channel discord.Channel) (before discord.Channel) {
	before, ok := ss.GuildChannels.Load(guildID, channel.ID)
	if !ok {
		ss.SetGuildChannel(ctx, guildID, channel)

		return
	}

	ss.SetGuildChannel(ctx, guildID, mergeChannel(before, channel))

	return before
}

// RemoveGuildChannel removes a channel from the cache.
func (ss *State) RemoveGuildChannel(guildID, channelID discord.Snowflake) {
	ss.GuildChannels.Delete(guildID, channelID)
}

// GetAllGuildChannels returns all guildChannels of a specific guild from the cache.
func (ss *State) GetAllGuildChannels(guildID discord.Snowflake) (guildChannelsList []discord.Channel, ok bool) {
	guildChannels, ok := ss.GuildChannels.Inner(guildID)

	if !ok {
		return
	}

	guildChannelsList = make([]discord.Channel, 0, guildChannels.Count())

	guildChannels.Range(func(_ discord.Snowflake, guildChannel discord.Channel) bool {
		guildChannelsList = append(guildChannelsList, guildChannel)
		return false
	})

	return guildChannelsList, true
}

// RemoveAllGuildChannels removes all guildChannels of a specific guild from the cache.
func (ss *State) RemoveAllGuildChannels(guildID discord.Snowflake) {
	ss.GuildChannels.ClearKey(guildID)
}

//
// User Operations
//

// GetUser returns the user with the same ID from the cache.
func (ss *State) GetUser(userID discord.Snowflake) (user discord.User, ok bool) {
	stateUser, ok := ss.Users.Load(userID)

	if !ok {
		return
	}

	return stateUser.User, true
}

// SetUser creates or updates a user entry in the cache.
func (ss *State) SetUser(ctx StateCtx, user discord.User) {
	// The user of the bot itself is always cached.
	if !ctx.CacheUsers && !ss.isSelf(ctx, user.ID) {
		return
	}

	ss.Users.Store(user.ID, StateUser{
		User:        user,
		LastUpdated: time.Now(),
	})
}

// RemoveUser removes a user from the cache, dropping any cached DM
// channel with them.
func (ss *State) RemoveUser(userID discord.Snowflake) {
	ss.Users.Delete(userID)
	ss.RemoveDMChannelByUserID(userID)
}

//
// DM Channel Operations
//

// GetDMChannel returns a cached DM channel, refreshing its expiry.
func (ss *State) GetDMChannel(channelID discord.Snowflake) (channel discord.Channel, ok bool) {
	dmChannel, ok := ss.DmChannels.Load(channelID)

	if !ok || time.Now().After(dmChannel.ExpiresAt) {
		return channel, false
	}

	dmChannel.ExpiresAt = time.Now().Add(dmChannelExpiration)
	ss.DmChannels.Store(channelID, dmChannel)

	return dmChannel.Channel, true
}

// AddDMChannel caches the DM channel of a user.
func (ss *State) AddDMChannel(userID discord.Snowflake, channel discord.Channel) {
	ss.DmChannels.Store(channel.ID, StateDMChannel{
		Channel:   channel,
		UserID:    userID,
		ExpiresAt: time.Now().Add(dmChannelExpiration),
	})
}

// RemoveDMChannelByUserID removes the cached DM channel of a user.
func (ss *State) RemoveDMChannelByUserID(userID discord.Snowflake) {
	var channelID discord.Snowflake

	ss.DmChannels.Range(func(id discord.Snowflake, dmChannel StateDMChannel) bool {
		if dmChannel.UserID == userID {
			channelID = id
			return true
		}

		return false
	})

	if channelID != 0 {
		ss.DmChannels.Delete(channelID)
	}
}

// GetUserMutualGuilds returns the guilds a user is seen on.
func (ss *State) GetUserMutualGuilds(userID discord.Snowflake) (guildIDs []discord.Snowflake, ok bool) {
	mutualGuilds, ok := ss.Mutuals.Inner(userID)

	if !ok {
		return
	}

	guildIDs = make([]discord.Snowflake, 0, mutualGuilds.Count())

	mutualGuilds.Range(func(guildID discord.Snowflake, _ struct{}) bool {
		guildIDs = append(guildIDs, guildID)
		return false
	})

	return guildIDs, true
}

func (ss *State) isSelf(ctx StateCtx, userID discord.Snowflake) bool {
	if ctx.Shard == nil || ctx.Concord == nil {
		return false
	}

	return ctx.Concord.UserID.Load() == int64(userID)
}

//
// Merge functions. Absent payload fields never clobber cached values:
// pointer fields merge on nil, strings on empty.
//

func mergeGuild(cached, patch discord.Guild) discord.Guild {
	cached.Name = replaceIfEmpty(patch.Name, cached.Name)
	cached.Icon = replaceIfEmpty(patch.Icon, cached.Icon)
	cached.Region = replaceIfEmpty(patch.Region, cached.Region)
	cached.Description = replaceIfEmpty(patch.Description, cached.Description)

	if patch.OwnerID != 0 {
		cached.OwnerID = patch.OwnerID
	}

	if patch.AFKChannelID != nil {
		cached.AFKChannelID = patch.AFKChannelID
	}

	if patch.AFKTimeout != nil {
		cached.AFKTimeout = patch.AFKTimeout
	}

	if patch.MemberCount != nil {
		cached.MemberCount = patch.MemberCount
	}

	if patch.Features != nil {
		cached.Features = patch.Features
	}

	cached.VerificationLevel = patch.VerificationLevel
	cached.DefaultMessageNotifications = patch.DefaultMessageNotifications
	cached.ExplicitContentFilter = patch.ExplicitContentFilter
	cached.Large = patch.Large
	cached.Unavailable = patch.Unavailable

	// Collections pass through so SetGuild can split them out.
	cached.Roles = patch.Roles
	cached.Channels = patch.Channels
	cached.Members = patch.Members

	return cached
}

func mergeChannel(cached, patch discord.Channel) discord.Channel {
	cached.Name = replaceIfEmpty(patch.Name, cached.Name)
	cached.Type = patch.Type

	if patch.Topic != nil {
		cached.Topic = patch.Topic
	}

	if patch.NSFW != nil {
		cached.NSFW = patch.NSFW
	}

	if patch.Bitrate != nil {
		cached.Bitrate = patch.Bitrate
	}

	if patch.UserLimit != nil {
		cached.UserLimit = patch.UserLimit
	}

	if patch.ParentID != nil {
		cached.ParentID = patch.ParentID
	}

	if patch.Position != nil {
		cached.Position = patch.Position
	}

	if patch.PermissionOverwrites != nil {
		cached.PermissionOverwrites = patch.PermissionOverwrites
	}

	return cached
}

func mergeGuildMember(cached, patch discord.GuildMember) discord.GuildMember {
	if patch.User != nil {
		cached.User = patch.User
	}

	if patch.Nick != nil {
		cached.Nick = patch.Nick
	}

	if patch.Roles != nil {
		cached.Roles = patch.Roles
	}

	if patch.JoinedAt != "" {
		cached.JoinedAt = patch.JoinedAt
	}

	cached.Deaf = patch.Deaf
	cached.Mute = patch.Mute

	return cached
}

func guildIDFallback(id *discord.Snowflake, fallback discord.Snowflake) discord.Snowflake {
	if id != nil && *id != 0 {
		return *id
	}

	return fallback
}

// Special state structs

type StateDMChannel struct {
	discord.Channel
	ExpiresAt time.Time         `json:"expires_at"`
	UserID    discord.Snowflake `json:"user_id"`
}

type StateUser struct {
	LastUpdated time.Time `json:"last_updated"`
	discord.User
}
