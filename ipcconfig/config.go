// Package ipcconfig is an optional viper-backed configuration loader for the
// rpc.Client, letting a host externalize connection tuning into a file or
// environment variables instead of only functional options.
package ipcconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config mirrors the subset of rpc.Options a host would plausibly want to
// externalize: wire timing, queue sizing, and presence dedup behavior.
type Config struct {
	ClientID string `mapstructure:"client_id"`
	Target   int    `mapstructure:"target"`

	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`

	BackoffMin time.Duration `mapstructure:"backoff_min"`
	BackoffMax time.Duration `mapstructure:"backoff_max"`

	OutboundQueueSize int `mapstructure:"outbound_queue_size"`
	InboundQueueSize  int `mapstructure:"inbound_queue_size"`

	SkipIdenticalPresence bool `mapstructure:"skip_identical_presence"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from path (if non-empty), then from a
// DISCORD_RPC-prefixed environment variable for every field, applying
// defaults for anything left unset. A missing file at path is not an error;
// a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("ipcconfig: failed to read config file: %w", err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("ipcconfig: failed to stat config file: %w", statErr)
		}
	}

	v.SetEnvPrefix("DISCORD_RPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ipcconfig: failed to unmarshal config: %w", err)
	}

	if cfg.ClientID == "" {
		if env := os.Getenv("DISCORD_RPC_CLIENT_ID"); env != "" {
			cfg.ClientID = env
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target", -1)
	v.SetDefault("dial_timeout", "5s")
	v.SetDefault("handshake_timeout", "10s")
	v.SetDefault("poll_interval", "1s")
	v.SetDefault("backoff_min", "500ms")
	v.SetDefault("backoff_max", "60s")
	v.SetDefault("outbound_queue_size", 512)
	v.SetDefault("inbound_queue_size", 256)
	v.SetDefault("skip_identical_presence", true)
	v.SetDefault("log_level", "info")
}
