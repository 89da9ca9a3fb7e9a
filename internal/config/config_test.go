package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Scrape.Hosts) == 0 {
		t.Error("no default hosts")
	}
	if cfg.Scrape.Timezone != "Europe/Bratislava" {
		t.Errorf("timezone = %q", cfg.Scrape.Timezone)
	}
	if cfg.Enrich.MBDelaySeconds < 1.0 {
		t.Errorf("mb delay = %f, must respect the 1 req/s guideline", cfg.Enrich.MBDelaySeconds)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scrape.OutputPath != "data/playlist.json" {
		t.Errorf("output path = %q", cfg.Scrape.OutputPath)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
scrape:
  output_path: /tmp/out.json
enrich:
  itunes_limit: 10
  mb_contact: "test/1.0 (test@example.com)"
logging:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scrape.OutputPath != "/tmp/out.json" {
		t.Errorf("output path = %q", cfg.Scrape.OutputPath)
	}
	if cfg.Enrich.ITunesLimit != 10 {
		t.Errorf("itunes limit = %d", cfg.Enrich.ITunesLimit)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	// Untouched keys keep their defaults.
	if cfg.Enrich.MBLimit != 30 {
		t.Errorf("mb limit = %d, want default 30", cfg.Enrich.MBLimit)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("enrich:\n  itunes_limit: 10\n"), 0o640); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AW_ITUNES_LIMIT", "25")
	t.Setenv("AW_LOG_FORMAT", "json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Enrich.ITunesLimit != 25 {
		t.Errorf("itunes limit = %d, want env override 25", cfg.Enrich.ITunesLimit)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format = %q", cfg.Logging.Format)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no hosts", func(c *Config) { c.Scrape.Hosts = nil }},
		{"no output path", func(c *Config) { c.Scrape.OutputPath = "" }},
		{"no cache path", func(c *Config) { c.Cache.Path = "" }},
		{"negative itunes limit", func(c *Config) { c.Enrich.ITunesLimit = -1 }},
		{"zero itunes delay", func(c *Config) { c.Enrich.ITunesDelaySeconds = 0 }},
		{"sub-second mb delay", func(c *Config) { c.Enrich.MBDelaySeconds = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate passed, want error")
			}
		})
	}
}
