package session

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"github.com/spf13/viper"

	"mit.edu/dsg/goplan/common"
)

// EnvPrefix prefixes the environment variables read by LoadConfig, e.g.
// GOPLAN_MAX_TREE_DEPTH.
const EnvPrefix = "GOPLAN"

// Config holds the limits and switches of a planning session.
type Config struct {
	// MaxTreeDepth bounds the depth of plans a session accepts.
	MaxTreeDepth int `mapstructure:"max_tree_depth"`
	// MaxPlaceholders bounds the planning-time resource ids one session may allocate.
	// 0 means no limit.
	MaxPlaceholders uint64 `mapstructure:"max_placeholders"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// CacheMetadata memoizes the builtin metadata queries for the session's lifetime.
	CacheMetadata bool `mapstructure:"cache_metadata"`
}

func DefaultConfig() Config {
	return Config{
		MaxTreeDepth:    256,
		MaxPlaceholders: 1 << 20,
		LogLevel:        "info",
		CacheMetadata:   true,
	}
}

// LoadConfig reads a Config from an optional file (any format viper understands) and
// from GOPLAN_* environment variables, on top of DefaultConfig. Environment variables
// win over the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	v.SetDefault("max_tree_depth", cfg.MaxTreeDepth)
	v.SetDefault("max_placeholders", cfg.MaxPlaceholders)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("cache_metadata", cfg.CacheMetadata)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", path)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports an InvalidConfigurationError for unusable settings.
func (c Config) Validate() error {
	if c.MaxTreeDepth <= 0 {
		return common.NewError(common.InvalidConfigurationError, "max_tree_depth must be positive, got %d", c.MaxTreeDepth)
	}
	if _, err := c.levelOption(); err != nil {
		return err
	}
	return nil
}

func (c Config) levelOption() (level.Option, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, common.NewError(common.InvalidConfigurationError, "unknown log level %q", c.LogLevel)
}
