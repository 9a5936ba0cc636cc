package concord

import (
	"fmt"
	"os"

	"github.com/concord-labs/concord/discord"
	"gopkg.in/yaml.v3"
)

// Configuration represents the configuration file.
type Configuration struct {
	// Token authenticates with the gateway and REST API. Fatal when
	// missing.
	Token string `json:"token" yaml:"token"`

	Bot struct {
		DefaultPresence *discord.UpdateStatus `json:"default_presence,omitempty" yaml:"default_presence,omitempty"`
		Intents         int64                 `json:"intents" yaml:"intents"`
		LargeThreshold  int32                 `json:"large_threshold" yaml:"large_threshold"`
	} `json:"bot" yaml:"bot"`

	Sharding struct {
		// ShardCount of 0 defers to the gateway bot endpoint.
		ShardCount int32 `json:"shard_count" yaml:"shard_count"`

		// ShardIDs is a range string such as 0-4,6-7. Empty runs every
		// shard in the count.
		ShardIDs string `json:"shard_ids" yaml:"shard_ids"`
	} `json:"sharding" yaml:"sharding"`

	Caching struct {
		CacheUsers   bool `json:"cache_users" yaml:"cache_users"`
		CacheMembers bool `json:"cache_members" yaml:"cache_members"`
		StoreMutuals bool `json:"store_mutuals" yaml:"store_mutuals"`
	} `json:"caching" yaml:"caching"`

	// GatewayURL overrides the connection url returned by the gateway
	// bot endpoint. Normally left empty.
	GatewayURL string `json:"gateway_url,omitempty" yaml:"gateway_url,omitempty"`

	PrometheusAddress string `json:"prometheus_address,omitempty" yaml:"prometheus_address,omitempty"`

	Logging struct {
		Level              string `json:"level" yaml:"level"`
		FileLoggingEnabled bool   `json:"file_logging_enabled" yaml:"file_logging_enabled"`
		Directory          string `json:"directory" yaml:"directory"`
		Filename           string `json:"filename" yaml:"filename"`
		MaxSize            int    `json:"max_size" yaml:"max_size"`
		MaxBackups         int    `json:"max_backups" yaml:"max_backups"`
		MaxAge             int    `json:"max_age" yaml:"max_age"`
		Compress           bool   `json:"compress" yaml:"compress"`
	} `json:"logging" yaml:"logging"`
}

// LoadConfiguration reads and parses a configuration file.
func LoadConfiguration(path string) (configuration Configuration, err error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return configuration, fmt.Errorf("%w: %v", ErrReadConfigurationFailure, err)
	}

	err = yaml.Unmarshal(file, &configuration)
	if err != nil {
		return configuration, fmt.Errorf("%w: %v", ErrLoadConfigurationFailure, err)
	}

	return configuration, nil
}

// Validate checks for configuration mistakes that would prevent a clean
// start.
func (cfg *Configuration) Validate() error {
	if cfg.Token == "" {
		return ErrMissingToken
	}

	if cfg.Sharding.ShardIDs != "" && cfg.Sharding.ShardCount > 0 {
		if len(returnRangeInt32(cfg.Sharding.ShardIDs, cfg.Sharding.ShardCount)) == 0 {
			return ErrInvalidShardCount
		}
	}

	return nil
}
