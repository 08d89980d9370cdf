package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides where the YAML config file is read from.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stagehub/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Store     StoreConfig     `koanf:"store"`
	KOPIS     KOPISConfig     `koanf:"kopis"`
	Interpark InterparkConfig `koanf:"interpark"`
	Crawlers  CrawlersConfig  `koanf:"crawlers"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	Classify  ClassifyConfig  `koanf:"classify"`
	Auth      AuthConfig      `koanf:"auth"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	HTTPAddr        string        `koanf:"http_addr"`
	GRPCAddr        string        `koanf:"grpc_addr"` // empty disables gRPC
	TCPAddr         string        `koanf:"tcp_addr"`  // empty disables the TCP event feed
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type StoreConfig struct {
	Backend     string        `koanf:"backend"` // sqlite, redis or none
	RedisURL    string        `koanf:"redis_url"`
	RedisPrefix string        `koanf:"redis_prefix"`
	RedisTTL    time.Duration `koanf:"redis_ttl"`
	Retain      int           `koanf:"retain"`
}

type KOPISConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Rows    int           `koanf:"rows"`
	Timeout time.Duration `koanf:"timeout"`
}

type InterparkConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// CrawlerConfig describes an external command that prints a crawl result as JSON.
type CrawlerConfig struct {
	Command string        `koanf:"command"` // empty disables the source
	Args    []string      `koanf:"args"`
	Dir     string        `koanf:"dir"`
	Timeout time.Duration `koanf:"timeout"`
}

type CrawlersConfig struct {
	Melon CrawlerConfig `koanf:"melon"`
	YES24 CrawlerConfig `koanf:"yes24"`
}

type RefreshConfig struct {
	Times           []string      `koanf:"times"`
	Timezone        string        `koanf:"timezone"`
	FreshWindow     time.Duration `koanf:"fresh_window"`
	HorizonDays     int           `koanf:"horizon_days"`
	Concurrency     int           `koanf:"concurrency"`
	PublishOnDemand bool          `koanf:"publish_on_demand"`
	RunOnStart      bool          `koanf:"run_on_start"`
	RegionFallback  string        `koanf:"region_fallback"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

type ClassifyConfig struct {
	TaxonomyFile string `koanf:"taxonomy_file"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	JWTIssuer         string        `koanf:"jwt_issuer"`
	JWTDuration       time.Duration `koanf:"jwt_duration"`
	AdminUser         string        `koanf:"admin_user"`
	AdminPasswordHash string        `koanf:"admin_password_hash"` // bcrypt; empty disables admin login
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        ":8080",
			GRPCAddr:        ":9090",
			TCPAddr:         ":9091",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: ""},
		Store: StoreConfig{
			Backend: "sqlite",
			Retain:  10,
		},
		KOPIS: KOPISConfig{
			BaseURL: "http://www.kopis.or.kr/openApi/restful",
			Rows:    50,
			Timeout: 10 * time.Second,
		},
		Interpark: InterparkConfig{
			Enabled: true,
			URL:     "https://tickets.interpark.com/contents/genre/concert",
			Timeout: 15 * time.Second,
		},
		Crawlers: CrawlersConfig{
			Melon: CrawlerConfig{Timeout: 120 * time.Second},
			YES24: CrawlerConfig{Timeout: 120 * time.Second},
		},
		Refresh: RefreshConfig{
			Times:           []string{"00:00", "12:00"},
			Timezone:        "Asia/Seoul",
			FreshWindow:     12 * time.Hour,
			HorizonDays:     60,
			Concurrency:     4,
			PublishOnDemand: true,
			RunOnStart:      true,
			BreakerFailures: 3,
			BreakerTimeout:  10 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "stagehub",
			JWTDuration: 24 * time.Hour,
			AdminUser:   "admin",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig layers defaults, an optional YAML file and environment variables,
// in that order of precedence.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Env values arrive as plain strings.
	for _, path := range sliceConfigPaths {
		if s, ok := k.Get(path).(string); ok {
			if err := k.Set(path, splitList(s)); err != nil {
				return nil, fmt.Errorf("set %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"refresh.times",
	"crawlers.melon.args",
	"crawlers.yes24.args",
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var envMappings = map[string]string{
	"stagehub_http_addr":        "server.http_addr",
	"stagehub_grpc_addr":        "server.grpc_addr",
	"stagehub_tcp_addr":         "server.tcp_addr",
	"stagehub_shutdown_timeout": "server.shutdown_timeout",

	"stagehub_db_path": "database.path",

	"stagehub_store_backend": "store.backend",
	"redis_url":              "store.redis_url",
	"stagehub_redis_prefix":  "store.redis_prefix",
	"stagehub_redis_ttl":     "store.redis_ttl",
	"stagehub_store_retain":  "store.retain",

	"kopis_api_key":  "kopis.api_key",
	"kopis_base_url": "kopis.base_url",
	"kopis_rows":     "kopis.rows",
	"kopis_timeout":  "kopis.timeout",

	"interpark_enabled": "interpark.enabled",
	"interpark_url":     "interpark.url",
	"interpark_timeout": "interpark.timeout",

	"melon_crawler_command": "crawlers.melon.command",
	"melon_crawler_args":    "crawlers.melon.args",
	"melon_crawler_timeout": "crawlers.melon.timeout",
	"yes24_crawler_command": "crawlers.yes24.command",
	"yes24_crawler_args":    "crawlers.yes24.args",
	"yes24_crawler_timeout": "crawlers.yes24.timeout",

	"refresh_times":             "refresh.times",
	"refresh_timezone":          "refresh.timezone",
	"refresh_fresh_window":      "refresh.fresh_window",
	"refresh_horizon_days":      "refresh.horizon_days",
	"refresh_concurrency":       "refresh.concurrency",
	"refresh_publish_on_demand": "refresh.publish_on_demand",
	"refresh_run_on_start":      "refresh.run_on_start",
	"refresh_region_fallback":   "refresh.region_fallback",

	"stagehub_taxonomy_file": "classify.taxonomy_file",

	"stagehub_jwt_secret":          "auth.jwt_secret",
	"stagehub_jwt_issuer":          "auth.jwt_issuer",
	"stagehub_jwt_duration":        "auth.jwt_duration",
	"stagehub_admin_user":          "auth.admin_user",
	"stagehub_admin_password_hash": "auth.admin_password_hash",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransformFunc maps known environment variables to config keys and
// drops everything else.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Location resolves the refresh timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Refresh.Timezone)
}

func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("refresh.timezone: %w", err)
	}
	if len(c.Refresh.Times) == 0 {
		return errors.New("refresh.times: at least one time is required")
	}
	for _, t := range c.Refresh.Times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("refresh.times: %q is not HH:MM", t)
		}
	}
	if c.Refresh.FreshWindow <= 0 {
		return errors.New("refresh.fresh_window must be positive")
	}
	if c.Refresh.HorizonDays <= 0 {
		return errors.New("refresh.horizon_days must be positive")
	}
	if c.Refresh.Concurrency < 0 {
		return errors.New("refresh.concurrency must not be negative")
	}

	switch c.Store.Backend {
	case "sqlite", "none":
	case "redis":
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}

	if c.Auth.JWTDuration <= 0 {
		return errors.New("auth.jwt_duration must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}
