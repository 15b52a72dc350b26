// Package config loads and validates the distsync configuration: the
// management-server session settings and the ordered list of distribution
// points to deliver to.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (DISTSYNC_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Repository configuration follows a kind + kind-specific-section pattern:
// the Kind field selects the backend, and only the matching section (share,
// upload or cloud) is decoded.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete distsync configuration.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging"`

	// Server describes the management-server session used by legacy upload
	// repositories and catalog lookups.
	Server ServerConfig `mapstructure:"server"`

	// Repositories is the ordered list of distribution points. Operations
	// fan out in exactly this order. An empty list is valid: every
	// operation becomes a no-op.
	Repositories []RepositoryConfig `mapstructure:"repositories" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig describes the authenticated management-server session.
type ServerConfig struct {
	// BaseURL is the server root, e.g. "https://mdm.example.org:8443".
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Repository kinds.
const (
	KindAFP          = "afp"
	KindSMB          = "smb"
	KindLocal        = "local"
	KindLegacyUpload = "legacy_upload"
	KindCloud        = "cloud"
)

// RepositoryConfig describes one distribution point. Only the section
// matching Kind is used.
type RepositoryConfig struct {
	// Kind selects the backend type.
	Kind string `mapstructure:"kind" validate:"required,oneof=afp smb local legacy_upload cloud"`

	// Name is the optional display name used in outcome reporting.
	Name string `mapstructure:"name"`

	// Share configures afp, smb and local repositories.
	Share map[string]any `mapstructure:"share"`

	// Upload configures legacy_upload repositories.
	Upload map[string]any `mapstructure:"upload"`

	// Cloud configures cloud repositories.
	Cloud map[string]any `mapstructure:"cloud"`
}

// Load reads the configuration from the given path, applies environment
// overrides and defaults, and validates the result. A missing file is not an
// error; defaults and environment variables then fully define the config.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("DISTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !isNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
