package concord

import "errors"

var (
	// ErrMissingToken is returned when no bot token was configured.
	ErrMissingToken = errors.New("no token was provided")

	// ErrInvalidToken is returned when the configured token was rejected
	// by the gateway bot endpoint during startup.
	ErrInvalidToken = errors.New("token is invalid")

	ErrReadConfigurationFailure = errors.New("failed to read configuration")
	ErrLoadConfigurationFailure = errors.New("failed to load configuration")

	// ErrInvalidShardCount is returned when the configured shard ids do
	// not fit within the shard count.
	ErrInvalidShardCount = errors.New("shard ids do not fit within shard count")

	ErrNoGatewayHandler  = errors.New("no registered handler for gateway event")
	ErrNoDispatchHandler = errors.New("no registered handler for dispatch event")

	// ErrReconnectSuperseded is returned when a pending reconnect was
	// cancelled by shutdown before its backoff elapsed.
	ErrReconnectSuperseded = errors.New("reconnect superseded by shutdown")

	// ErrRoleNotFound signals cache desync: a member references a role
	// that is not present in the guild role cache. This is an internal
	// consistency error, not a permission-denied result.
	ErrRoleNotFound = errors.New("role not present in state")

	ErrGuildNotFound   = errors.New("guild not present in state")
	ErrMemberNotFound  = errors.New("member not present in state")
	ErrChannelNotFound = errors.New("channel not present in state")
)
