// Package config provides a reusable loader for collabnode configuration
// files and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"collabnode/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for a collabnode peer. It
// mirrors the structure of the YAML files under config/.
type Config struct {
	Network struct {
		Name           string   `mapstructure:"name" json:"name"`   // "main" or "test"
		Magic          uint32   `mapstructure:"magic" json:"magic"` // envelope network tag
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		DefaultPort    int      `mapstructure:"default_port" json:"default_port"`
		MaxPeers       int      `mapstructure:"max_peers" json:"max_peers"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"network" json:"network"`

	Identity struct {
		KeyFile string `mapstructure:"key_file" json:"key_file"`
	} `mapstructure:"identity" json:"identity"`

	Storage struct {
		RefsPath string `mapstructure:"refs_path" json:"refs_path"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	Diagnostics struct {
		Enabled    bool   `mapstructure:"enabled" json:"enabled"`
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"diagnostics" json:"diagnostics"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.SetEnvPrefix("collabnode")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // picks up COLLABNODE_* overrides, e.g. COLLABNODE_LOGGING_LEVEL

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the COLLABNODE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("COLLABNODE_ENV", ""))
}
