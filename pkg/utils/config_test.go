package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Refresh.FreshWindow != 12*time.Hour || !cfg.Refresh.PublishOnDemand {
		t.Errorf("refresh = %+v", cfg.Refresh)
	}
	if got := strings.Join(cfg.Refresh.Times, ","); got != "00:00,12:00" {
		t.Errorf("times = %s", got)
	}
	if cfg.KOPIS.Rows != 50 || cfg.KOPIS.Timeout != 10*time.Second {
		t.Errorf("kopis = %+v", cfg.KOPIS)
	}
	if cfg.Crawlers.Melon.Timeout != 120*time.Second || cfg.Interpark.Timeout != 15*time.Second {
		t.Errorf("timeouts = %s / %s", cfg.Crawlers.Melon.Timeout, cfg.Interpark.Timeout)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Seoul" {
		t.Errorf("location = %v, %v", loc, err)
	}
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  http_addr: ":9000"
kopis:
  api_key: from-file
  rows: 20
crawlers:
  melon:
    command: python3
    args: ["crawl.py", "--melon"]
refresh:
  times: ["06:00"]
  fresh_window: 6h
logging:
  format: console
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("KOPIS_API_KEY", "from-env")
	t.Setenv("REFRESH_PUBLISH_ON_DEMAND", "false")
	t.Setenv("YES24_CRAWLER_ARGS", "crawl.py, --yes24")
	t.Setenv("STAGEHUB_DB_PATH", "/tmp/stagehub-test.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.KOPIS.APIKey != "from-env" {
		t.Errorf("env did not override file: %q", cfg.KOPIS.APIKey)
	}
	if cfg.KOPIS.Rows != 20 || cfg.Server.HTTPAddr != ":9000" {
		t.Errorf("file values lost: %+v %+v", cfg.KOPIS, cfg.Server)
	}
	if cfg.KOPIS.Timeout != 10*time.Second {
		t.Errorf("default lost under partial section: %s", cfg.KOPIS.Timeout)
	}
	if cfg.Refresh.FreshWindow != 6*time.Hour || len(cfg.Refresh.Times) != 1 || cfg.Refresh.PublishOnDemand {
		t.Errorf("refresh = %+v", cfg.Refresh)
	}
	if strings.Join(cfg.Crawlers.Melon.Args, " ") != "crawl.py --melon" {
		t.Errorf("melon args = %v", cfg.Crawlers.Melon.Args)
	}
	if strings.Join(cfg.Crawlers.YES24.Args, " ") != "crawl.py --yes24" {
		t.Errorf("yes24 args = %v", cfg.Crawlers.YES24.Args)
	}
	if cfg.Database.Path != "/tmp/stagehub-test.db" || cfg.Logging.Format != "console" {
		t.Errorf("db/logging = %s %s", cfg.Database.Path, cfg.Logging.Format)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad time", mutate: func(c *Config) { c.Refresh.Times = []string{"12:60"} }, wantErr: "refresh.times"},
		{name: "no times", mutate: func(c *Config) { c.Refresh.Times = nil }, wantErr: "refresh.times"},
		{name: "bad zone", mutate: func(c *Config) { c.Refresh.Timezone = "Mars/Olympus" }, wantErr: "refresh.timezone"},
		{name: "zero window", mutate: func(c *Config) { c.Refresh.FreshWindow = 0 }, wantErr: "fresh_window"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "etcd" }, wantErr: "store.backend"},
		{name: "redis without url", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: "redis_url"},
		{name: "redis with url", mutate: func(c *Config) { c.Store.Backend = "redis"; c.Store.RedisURL = "redis://localhost:6379/0" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
