package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"freerooms/internal/model"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the calendar endpoints.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CacheConfig selects where raw room calendars and computed combinations live.
type CacheConfig struct {
	// Backend is one of "file" (default), "memory" or "sqlite".
	Backend string `yaml:"backend" json:"backend"`
	// Dir holds <key>.ics payloads and the stamp tables of the file backend.
	Dir string `yaml:"dir" json:"dir"`
	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	// TTLMinutes is how long an entry stays fresh.
	TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`
}

// TTL returns TTLMinutes as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SourceConfig describes the upstream ADE planning server.
type SourceConfig struct {
	// URLTemplate is the per-room export URL; {id}, {first} and {last} are
	// substituted on every request.
	URLTemplate       string  `yaml:"url_template" json:"url_template"`
	WindowDays        int     `yaml:"window_days" json:"window_days"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// Timeout returns TimeoutSeconds as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" json:"level"`
	// Format is "console" (default) or "json".
	Format string `yaml:"format" json:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	Cache  CacheConfig  `yaml:"cache" json:"cache"`
	Source SourceConfig `yaml:"source" json:"source"`

	// FetchConcurrency bounds the upstream fetches of one request.
	FetchConcurrency int `yaml:"fetch_concurrency" json:"fetch_concurrency"`

	// PassthroughBelow is the room count under which free-room requests
	// return the raw union of the calendars. Zero disables passthrough.
	PassthroughBelow *int `yaml:"passthrough_below,omitempty" json:"passthrough_below,omitempty"`

	// RefreshCron is a cron-style schedule (e.g. "*/30 * * * *") for warming
	// the per-room cache. Empty disables the warm-up.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// RateLimitPerSec caps calendar requests per client IP. Zero disables it.
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" json:"rate_limit_per_sec"`

	// ActivityLevels maps a room label (or short code) to a level name such
	// as "quiet-closed" or "loud-open".
	ActivityLevels map[string]string `yaml:"activity_levels" json:"activity_levels"`

	Log LogConfig `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen           = "127.0.0.1:7878"
	defaultCacheDir         = "cache"
	defaultSQLitePath       = "cache/freerooms.db"
	defaultTTLMinutes       = 60
	defaultWindowDays       = 3
	defaultTimeoutSeconds   = 15
	defaultFetchConcurrency = 5
	defaultPassthroughBelow = 3
	defaultRefreshCron      = "*/30 * * * *"
	defaultRateLimitPerSec  = 10
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	passthrough := defaultPassthroughBelow
	return &Config{
		Listen: defaultListen,
		Cache: CacheConfig{
			Backend:    BackendFile,
			Dir:        defaultCacheDir,
			SQLitePath: defaultSQLitePath,
			TTLMinutes: defaultTTLMinutes,
		},
		Source: SourceConfig{
			WindowDays:     defaultWindowDays,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		FetchConcurrency: defaultFetchConcurrency,
		PassthroughBelow: &passthrough,
		RefreshCron:      defaultRefreshCron,
		RateLimitPerSec:  defaultRateLimitPerSec,
		ActivityLevels:   map[string]string{},
		Log:              LogConfig{Level: "info", Format: "console"},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}

	switch c.Cache.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	default:
		c.Cache.Backend = BackendFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = defaultCacheDir
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = defaultSQLitePath
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = defaultTTLMinutes
	}

	if c.Source.WindowDays <= 0 {
		c.Source.WindowDays = defaultWindowDays
	}
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Source.RequestsPerSecond < 0 {
		c.Source.RequestsPerSecond = 0
	}

	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = defaultFetchConcurrency
	}
	// An explicit 0 is kept: it turns passthrough off.
	if c.PassthroughBelow == nil || *c.PassthroughBelow < 0 {
		p := defaultPassthroughBelow
		c.PassthroughBelow = &p
	}
	if c.RateLimitPerSec < 0 {
		c.RateLimitPerSec = 0
	}
	if c.ActivityLevels == nil {
		c.ActivityLevels = map[string]string{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format != "json" {
		c.Log.Format = "console"
	}
}

// Levels parses ActivityLevels. An unknown level name is an error naming the
// room it was configured for.
func (c *Config) Levels() (map[string]model.ActivityLevel, error) {
	out := make(map[string]model.ActivityLevel, len(c.ActivityLevels))
	for room, name := range c.ActivityLevels {
		l, err := model.ParseActivityLevel(name)
		if err != nil {
			return nil, fmt.Errorf("activity_levels[%q]: %w", room, err)
		}
		out[room] = l
	}
	return out, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path, atomically via
// a temp file + rename, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".freerooms-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
