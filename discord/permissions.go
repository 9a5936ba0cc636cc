package discord

const (
	PermissionCreateInstantInvite = 0x0000000000000001 // Allows creation of instant invites.
	PermissionKickMembers         = 0x0000000000000002 // Allows kicking members.
	PermissionBanMembers          = 0x0000000000000004 // Allows banning members.
	PermissionAdministrator       = 0x0000000000000008 // Allows all permissions and bypasses channel permission overwrites.
	PermissionManageChannels      = 0x0000000000000010 // Allows management and editing of channels.
	PermissionManageServer        = 0x0000000000000020 // Allows management and editing of the guild.
	PermissionAddReactions        = 0x0000000000000040 // Allows for the addition of reactions to messages.
	PermissionViewAuditLogs       = 0x0000000000000080 // Allows for viewing of audit logs.
	PermissionVoicePrioritySpeaker = 0x0000000000000100
	PermissionVoiceStreamVideo     = 0x0000000000000200
	PermissionViewChannel          = 0x0000000000000400 // Allows guild members to view a channel, which includes reading messages in text channels.
	PermissionSendMessages         = 0x0000000000000800 // Allows for sending messages in a channel.
	PermissionSendTTSMessages      = 0x0000000000001000
	PermissionManageMessages       = 0x0000000000002000 // Allows for deletion of other users messages.
	PermissionEmbedLinks           = 0x0000000000004000
	PermissionAttachFiles          = 0x0000000000008000
	PermissionReadMessageHistory   = 0x0000000000010000
	PermissionMentionEveryone      = 0x0000000000020000
	PermissionUseExternalEmojis    = 0x0000000000040000
	PermissionViewGuildInsights    = 0x0000000000080000
	PermissionVoiceConnect         = 0x0000000000100000
	PermissionVoiceSpeak           = 0x0000000000200000
	PermissionVoiceMuteMembers     = 0x0000000000400000
	PermissionVoiceDeafenMembers   = 0x0000000000800000
	PermissionVoiceMoveMembers     = 0x0000000001000000
	PermissionVoiceUseVAD          = 0x0000000002000000
	PermissionChangeNickname       = 0x0000000004000000
	PermissionManageNicknames      = 0x0000000008000000
	PermissionManageRoles          = 0x0000000010000000 // Allows management and editing of roles.
	PermissionManageWebhooks       = 0x0000000020000000
	PermissionManageEmojis         = 0x0000000040000000

	PermissionAllText = PermissionViewChannel |
		PermissionSendMessages |
		PermissionSendTTSMessages |
		PermissionManageMessages |
		PermissionEmbedLinks |
		PermissionAttachFiles |
		PermissionReadMessageHistory |
		PermissionMentionEveryone

	PermissionAllVoice = PermissionViewChannel |
		PermissionVoiceConnect |
		PermissionVoiceSpeak |
		PermissionVoiceMuteMembers |
		PermissionVoiceDeafenMembers |
		PermissionVoiceMoveMembers |
		PermissionVoiceUseVAD |
		PermissionVoicePrioritySpeaker

	PermissionAllChannel = PermissionAllText |
		PermissionAllVoice |
		PermissionCreateInstantInvite |
		PermissionManageRoles |
		PermissionManageChannels |
		PermissionAddReactions |
		PermissionViewAuditLogs

	PermissionAll = PermissionAllChannel |
		PermissionKickMembers |
		PermissionBanMembers |
		PermissionManageServer |
		PermissionAdministrator |
		PermissionManageWebhooks |
		PermissionManageEmojis
)
