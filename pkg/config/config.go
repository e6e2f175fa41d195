// Package config loads fieldsync settings: defaults, then the config file
// in the user's config directory, then FIELDSYNC_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

const xdgAppName = "fieldsync"

// Config is the full runtime configuration.
type Config struct {
	// Calendar is the Google Calendar name (or id, or "primary") that
	// managed events are written to.
	Calendar string `mapstructure:"calendar"`

	CredentialsFile  string `mapstructure:"credentials_file"`
	TokenFile        string `mapstructure:"token_file"`
	StorePath        string `mapstructure:"store_path"`
	GeocodeCachePath string `mapstructure:"geocode_cache_path"`
	MapsAPIKey       string `mapstructure:"maps_api_key"`

	Supabase SupabaseConfig `mapstructure:"supabase"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
}

// SupabaseConfig locates the remote relational store.
type SupabaseConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

// SyncConfig tunes the sync engine.
type SyncConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	CallTimeout   time.Duration `mapstructure:"call_timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	SkipUnchanged bool          `mapstructure:"skip_unchanged"`
	// Schedule is the cron expression driving daemon mode.
	Schedule string `mapstructure:"schedule"`
	// Timezone renders job wall-clock windows; "Local" uses the host zone.
	Timezone string `mapstructure:"timezone"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Dir returns the fieldsync config directory (~/.config/fieldsync).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// Load reads the configuration. A missing config file is fine; defaults and
// environment variables still apply.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, dir)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("FIELDSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}

// Location resolves the configured sync time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Sync.Timezone == "" || c.Sync.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Sync.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown timezone %q", c.Sync.Timezone)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("calendar", "Dispatch")
	v.SetDefault("credentials_file", filepath.Join(dir, "credentials.json"))
	v.SetDefault("token_file", filepath.Join(dir, "token.json"))
	v.SetDefault("store_path", filepath.Join(dir, "store.json"))
	v.SetDefault("geocode_cache_path", filepath.Join(dir, "geocode_cache.json"))
	v.SetDefault("sync.concurrency", 4)
	v.SetDefault("sync.call_timeout", "15s")
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.skip_unchanged", false)
	v.SetDefault("sync.schedule", "*/15 * * * *")
	v.SetDefault("sync.timezone", "Local")
	v.SetDefault("log.level", "info")
}
