// Package config loads the static YAML configuration that defines users,
// the media library and the security knobs of the server. Loading is fatal
// on any validation error: the process must refuse to start rather than
// run with a missing secret or an empty user list.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// placeholderSecret ships in the sample config and must never make it
	// into a running instance.
	placeholderSecret = "CHANGE_ME_IN_FAVOUR_OF_A_LONG_PASSWORD"

	defaultRateLimit      = "100 per minute"
	defaultLoginRateLimit = "10 per minute"
	defaultStorageURI     = "memory://"
	defaultSessionTTL     = 12 * time.Hour
	defaultStreamTokenTTL = 15 * time.Minute
)

var requiredKeys = []string{
	"users",
	"video_extensions",
	"audio_extensions",
	"media_root",
	"secret_key",
	"protocol",
}

type (
	// Duration wraps time.Duration so TTLs can be written as "15m" or
	// "12h" in the config file.
	Duration time.Duration

	Config struct {
		Users               map[string]string `yaml:"users"`
		VideoExtensions     []string          `yaml:"video_extensions"`
		AudioExtensions     []string          `yaml:"audio_extensions"`
		MediaRoot           string            `yaml:"media_root"`
		SecretKey           string            `yaml:"secret_key"`
		Protocol            string            `yaml:"protocol"`
		RateLimitDefault    string            `yaml:"rate_limit_default"`
		RateLimitLogin      string            `yaml:"rate_limit_login"`
		RateLimitStorageURI string            `yaml:"rate_limit_storage_uri"`
		SessionTTL          Duration          `yaml:"session_ttl"`
		StreamTokenTTL      Duration          `yaml:"stream_token_ttl"`
	}
)

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q, cause %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file %v, cause %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw YAML config bytes.
func Parse(raw []byte) (*Config, error) {
	var present map[string]any
	if err := yaml.Unmarshal(raw, &present); err != nil {
		return nil, fmt.Errorf("unable to parse config file, cause %w", err)
	}
	for _, key := range requiredKeys {
		if _, ok := present[key]; !ok {
			return nil, fmt.Errorf("missing %q key in config file", key)
		}
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file, cause %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RateLimitDefault == "" {
		c.RateLimitDefault = defaultRateLimit
	}
	if c.RateLimitLogin == "" {
		c.RateLimitLogin = defaultLoginRateLimit
	}
	if c.RateLimitStorageURI == "" {
		c.RateLimitStorageURI = defaultStorageURI
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = Duration(defaultSessionTTL)
	}
	if c.StreamTokenTTL == 0 {
		c.StreamTokenTTL = Duration(defaultStreamTokenTTL)
	}
}

func (c *Config) validate() error {
	if len(c.Users) == 0 {
		return fmt.Errorf("users must not be empty")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key must not be empty")
	}
	if c.SecretKey == placeholderSecret {
		return fmt.Errorf("you must change the default secret_key in the config file")
	}
	switch c.Protocol {
	case "http", "https":
	default:
		return fmt.Errorf("protocol must be http or https, got %q", c.Protocol)
	}
	info, err := os.Stat(c.MediaRoot)
	if err != nil {
		return fmt.Errorf("unable to access media_root %v, cause %w", c.MediaRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("media_root %v is not a directory", c.MediaRoot)
	}
	if _, err := os.ReadDir(c.MediaRoot); err != nil {
		return fmt.Errorf("unable to list media_root %v, cause %w", c.MediaRoot, err)
	}
	return nil
}
