// Package config loads and saves the persistent CLI settings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/scraper"
)

// EnvPrefix prefixes environment overrides. Nested keys use "__", so
// NODARBIBAS_DEFAULTS__PROGRAM sets defaults.program.
const EnvPrefix = "NODARBIBAS_"

const (
	DefaultBaseURL               = scraper.DefaultBaseURL
	DefaultUserAgent             = scraper.DefaultUserAgent
	DefaultTimeoutMs             = 10_000
	DefaultCacheTimeoutMs        = 5 * 60 * 1000
	DefaultDiscoveryCacheTimeout = 60 * 60 * 1000
	DefaultTimezone              = "Europe/Riga"
	DefaultLogLevel              = "warn"
)

// Defaults are the selections used when a command is run without them.
type Defaults struct {
	Period  string `json:"period" yaml:"period,omitempty"`
	Program string `json:"program" yaml:"program,omitempty"`
	Course  int    `json:"course" yaml:"course,omitempty"`
	Group   int    `json:"group" yaml:"group,omitempty"`
}

// Config holds all user-defined persistent settings. Durations are in
// milliseconds.
type Config struct {
	BaseURL               string `json:"base_url" yaml:"base_url"`
	Timeout               int    `json:"timeout" yaml:"timeout"`
	UserAgent             string `json:"user_agent" yaml:"user_agent"`
	CacheTimeout          int    `json:"cache_timeout" yaml:"cache_timeout"`
	DiscoveryCacheTimeout int    `json:"discovery_cache_timeout" yaml:"discovery_cache_timeout"`
	// AutoDiscover is accepted for compatibility and currently has no effect.
	AutoDiscover bool     `json:"auto_discover" yaml:"auto_discover"`
	Timezone     string   `json:"timezone" yaml:"timezone"`
	LogLevel     string   `json:"log_level" yaml:"log_level"`
	AccentColor  string   `json:"accent_color" yaml:"accent_color,omitempty"`
	Defaults     Defaults `json:"defaults" yaml:"defaults"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{AutoDiscover: true}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeoutMs
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.CacheTimeout == 0 {
		c.CacheTimeout = DefaultCacheTimeoutMs
	}
	if c.DiscoveryCacheTimeout == 0 {
		c.DiscoveryCacheTimeout = DefaultDiscoveryCacheTimeout
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.CacheTimeout < 0 || c.DiscoveryCacheTimeout < 0 {
		return fmt.Errorf("cache timeouts must not be negative")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.Defaults.Course < 0 || c.Defaults.Group < 0 {
		return fmt.Errorf("default course and group must not be negative")
	}
	return nil
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c Config) TimeoutDuration() time.Duration { return ms(c.Timeout) }
func (c Config) CacheTTL() time.Duration        { return ms(c.CacheTimeout) }
func (c Config) DiscoveryTTL() time.Duration    { return ms(c.DiscoveryCacheTimeout) }

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DefaultPath returns the absolute path to ~/.nodarbibas.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".nodarbibas.yaml"), nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// Load reads the configuration at path, or DefaultPath when path is empty,
// and applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path, or DefaultPath when path is empty. The
// file is replaced atomically.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".nodarbibas-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Keys lists the settings Set understands.
var Keys = []string{
	"base_url", "timeout", "user_agent", "cache_timeout", "discovery_cache_timeout",
	"auto_discover", "timezone", "log_level", "accent_color",
	"defaults.period", "defaults.program", "defaults.course", "defaults.group",
}

// Set assigns one setting from its string form and revalidates.
func (c *Config) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", key, value)
		}
		return n, nil
	}

	next := *c
	var err error
	switch key {
	case "base_url":
		next.BaseURL = value
	case "timeout":
		next.Timeout, err = atoi()
	case "user_agent":
		next.UserAgent = value
	case "cache_timeout":
		next.CacheTimeout, err = atoi()
	case "discovery_cache_timeout":
		next.DiscoveryCacheTimeout, err = atoi()
	case "auto_discover":
		next.AutoDiscover, err = strconv.ParseBool(value)
	case "timezone":
		next.Timezone = value
		if _, lerr := next.Location(); lerr != nil {
			err = lerr
		}
	case "log_level":
		next.LogLevel = value
	case "accent_color":
		next.AccentColor = value
	case "defaults.period":
		next.Defaults.Period = value
	case "defaults.program":
		next.Defaults.Program = value
	case "defaults.course":
		next.Defaults.Course, err = atoi()
	case "defaults.group":
		next.Defaults.Group, err = atoi()
	default:
		return fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
