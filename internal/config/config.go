package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/gamedex/internal/domain"
)

// Supported durable tier drivers.
const (
	DriverValkey   = "valkey"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config holds the gamedex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Quota    QuotaConfig    `yaml:"quota"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds durable tier settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, postgres, badger (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DSN              string   `yaml:"dsn"`
	Path             string   `yaml:"path"`
	InMemory         bool     `yaml:"in_memory"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds upstream catalog proxy settings.
type CatalogConfig struct {
	URL        string  `yaml:"url"`
	ClientID   string  `yaml:"client_id"`
	Token      string  `yaml:"token"`
	TimeoutMs  int     `yaml:"timeout_ms"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
	MaxRetries int     `yaml:"max_retries"`
	ImageSize  string  `yaml:"image_size"`
}

// CacheConfig holds two-tier cache settings.
type CacheConfig struct {
	Tier1Size            int    `yaml:"tier1_size"`
	Tier1TTLSec          int    `yaml:"tier1_ttl_sec"`
	Tier2TTLSec          int    `yaml:"tier2_ttl_sec"`
	GraceSec             int    `yaml:"grace_sec"`
	StaleWhileRevalidate *bool  `yaml:"stale_while_revalidate"` // default: true
	RefreshWorkers       int    `yaml:"refresh_workers"`
	RefreshTimeoutSec    int    `yaml:"refresh_timeout_sec"`
	Tier2TimeoutMs       int    `yaml:"tier2_timeout_ms"` // per durable read/write
	PartialTTLSec        int    `yaml:"partial_ttl_sec"`
	KeyPrefix            string `yaml:"key_prefix"`
}

// ThresholdsConfig holds per-intent relevance thresholds.
type ThresholdsConfig struct {
	Exact     float64 `yaml:"exact"`
	Franchise float64 `yaml:"franchise"`
	General   float64 `yaml:"general"`
}

// SearchConfig holds search tuning.
type SearchConfig struct {
	Thresholds        ThresholdsConfig `yaml:"thresholds"`
	SearchTimeoutMs   int              `yaml:"search_timeout_ms"`
	SubQueryTimeoutMs int              `yaml:"subquery_timeout_ms"`
	MaxConcurrency    int              `yaml:"max_concurrency"`
	SortByRating      *bool            `yaml:"sort_by_rating"` // default: true
	TablesPath        string           `yaml:"tables_path"`    // empty: built-in tables
}

// QuotaConfig holds the upstream daily request quota.
type QuotaConfig struct {
	DailyRequestLimit int64  `yaml:"daily_request_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document after ${VAR} substitution.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalog.TimeoutMs <= 0 {
		c.Catalog.TimeoutMs = 10000
	}
	if c.Catalog.ImageSize == "" {
		c.Catalog.ImageSize = "t_1080p"
	}
	if c.Cache.Tier1Size <= 0 {
		c.Cache.Tier1Size = 1024
	}
	if c.Cache.Tier1TTLSec <= 0 {
		c.Cache.Tier1TTLSec = 300
	}
	if c.Cache.Tier2TTLSec <= 0 {
		c.Cache.Tier2TTLSec = 86400
	}
	if c.Cache.GraceSec < 0 {
		c.Cache.GraceSec = 0
	}
	if c.Cache.Tier2TimeoutMs <= 0 {
		c.Cache.Tier2TimeoutMs = 500
	}
	if c.Cache.PartialTTLSec <= 0 {
		c.Cache.PartialTTLSec = 30
	}
	if c.Cache.StaleWhileRevalidate == nil {
		c.Cache.StaleWhileRevalidate = boolPtr(true)
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = domain.KeyPrefix
	}

	def := domain.DefaultSearchTuning()
	if c.Search.Thresholds == (ThresholdsConfig{}) {
		c.Search.Thresholds = ThresholdsConfig(def.Thresholds)
	}
	if c.Search.SearchTimeoutMs <= 0 {
		c.Search.SearchTimeoutMs = int(def.SearchTimeout / time.Millisecond)
	}
	if c.Search.SubQueryTimeoutMs <= 0 {
		c.Search.SubQueryTimeoutMs = int(def.SubQueryTimeout / time.Millisecond)
	}
	if c.Search.MaxConcurrency <= 0 {
		c.Search.MaxConcurrency = def.MaxConcurrency
	}
	if c.Search.SortByRating == nil {
		c.Search.SortByRating = boolPtr(def.SortByRating)
	}
	if c.Quota.Action == "" {
		c.Quota.Action = "warn"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return c.ValidateEngine()
}

// ValidateEngine checks every section except http. Embedded users have no server.
func (c *Config) ValidateEngine() error {
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	case DriverBadger:
		if c.Database.Path == "" && !c.Database.InMemory {
			return fmt.Errorf("database.path is required for driver %q unless in_memory is set", c.Database.Driver)
		}
	default:
		return fmt.Errorf(
			"database.driver must be one of valkey, redis, postgres, badger, got %q", c.Database.Driver,
		)
	}

	if c.Catalog.URL == "" {
		return fmt.Errorf("catalog.url is required")
	}

	th := c.Search.Thresholds
	for name, v := range map[string]float64{"exact": th.Exact, "franchise": th.Franchise, "general": th.General} {
		if v < 0 || v > 1 {
			return fmt.Errorf("search.thresholds.%s must be within [0, 1], got %v", name, v)
		}
	}
	if th.Franchise > th.Exact {
		return fmt.Errorf(
			"search.thresholds.franchise (%v) must not exceed search.thresholds.exact (%v)", th.Franchise, th.Exact,
		)
	}
	if c.Search.SubQueryTimeoutMs > c.Search.SearchTimeoutMs {
		return fmt.Errorf(
			"search.subquery_timeout_ms (%d) must not exceed search.search_timeout_ms (%d)",
			c.Search.SubQueryTimeoutMs, c.Search.SearchTimeoutMs,
		)
	}

	switch c.Quota.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("quota.action must be \"warn\" or \"reject\", got %q", c.Quota.Action)
	}
	if c.Quota.DailyRequestLimit < 0 {
		return fmt.Errorf("quota.daily_request_limit must not be negative, got %d", c.Quota.DailyRequestLimit)
	}
	return nil
}

// Tuning converts the search section into domain tuning. Fields not exposed
// in YAML keep their built-in values.
func (c *Config) Tuning() domain.SearchTuning {
	t := domain.DefaultSearchTuning()
	t.Thresholds = domain.Thresholds(c.Search.Thresholds)
	t.SearchTimeout = time.Duration(c.Search.SearchTimeoutMs) * time.Millisecond
	t.SubQueryTimeout = time.Duration(c.Search.SubQueryTimeoutMs) * time.Millisecond
	t.MaxConcurrency = c.Search.MaxConcurrency
	if c.Search.SortByRating != nil {
		t.SortByRating = *c.Search.SortByRating
	}
	return t
}

func boolPtr(b bool) *bool { return &b }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
