package concord

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfiguration(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "concord.yaml")

	err := os.WriteFile(path, []byte(`
token: "token"
bot:
  intents: 32767
  large_threshold: 250
sharding:
  shard_count: 4
  shard_ids: "0-3"
caching:
  cache_users: true
  cache_members: true
  store_mutuals: true
prometheus_address: "localhost:9090"
logging:
  level: "debug"
`), 0o600)
	assert.NoError(t, err)

	configuration, err := LoadConfiguration(path)
	assert.NoError(t, err)

	assert.Equal(t, "token", configuration.Token)
	assert.Equal(t, int64(32767), configuration.Bot.Intents)
	assert.Equal(t, int32(250), configuration.Bot.LargeThreshold)
	assert.Equal(t, int32(4), configuration.Sharding.ShardCount)
	assert.Equal(t, "0-3", configuration.Sharding.ShardIDs)
	assert.True(t, configuration.Caching.CacheUsers)
	assert.Equal(t, "localhost:9090", configuration.PrometheusAddress)
	assert.Equal(t, "debug", configuration.Logging.Level)

	assert.NoError(t, configuration.Validate())
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrReadConfigurationFailure)
}

func TestLoadConfigurationMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "concord.yaml")

	err := os.WriteFile(path, []byte(`token: [`), 0o600)
	assert.NoError(t, err)

	_, err = LoadConfiguration(path)
	assert.ErrorIs(t, err, ErrLoadConfigurationFailure)
}

func TestConfigurationValidate(t *testing.T) {
	t.Parallel()

	configuration := Configuration{}

	assert.ErrorIs(t, configuration.Validate(), ErrMissingToken)

	configuration.Token = "token"
	assert.NoError(t, configuration.Validate())

	// A range that selects no shard inside the count cannot start.
	configuration.Sharding.ShardCount = 2
	configuration.Sharding.ShardIDs = "5-9"
	assert.ErrorIs(t, configuration.Validate(), ErrInvalidShardCount)

	configuration.Sharding.ShardIDs = "0-1"
	assert.NoError(t, configuration.Validate())
}
