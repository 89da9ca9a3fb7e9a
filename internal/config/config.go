package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScrapeConfig holds playlist page scraping settings.
type ScrapeConfig struct {
	Hosts        []string `yaml:"hosts"`
	PlaylistPath string   `yaml:"playlist_path"`
	OutputPath   string   `yaml:"output_path"`
	Timezone     string   `yaml:"timezone"`
	UserAgent    string   `yaml:"user_agent"`
}

// EnrichConfig holds metadata enrichment settings. Delays are the mandatory
// pause between outbound calls to one catalog; limits cap lookups per run.
type EnrichConfig struct {
	ITunesCountry      string  `yaml:"itunes_country"`
	ITunesLimit        int     `yaml:"itunes_limit"`
	ITunesDelaySeconds float64 `yaml:"itunes_delay_seconds"`
	MBLimit            int     `yaml:"mb_limit"`
	MBDelaySeconds     float64 `yaml:"mb_delay_seconds"`
	MBContact          string  `yaml:"mb_contact"`
}

// CacheConfig holds lookup cache database settings.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxFiles   int    `yaml:"file_max_files"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			Hosts:        []string{"https://www.radia.sk", "https://radia.sk"},
			PlaylistPath: "/radia/melody/playlist",
			OutputPath:   "data/playlist.json",
			Timezone:     "Europe/Bratislava",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
				"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		},
		Enrich: EnrichConfig{
			ITunesCountry:      "sk",
			ITunesLimit:        40,
			ITunesDelaySeconds: 0.6,
			MBLimit:            30,
			// MusicBrainz asks anonymous clients to stay under 1 req/s.
			MBDelaySeconds: 1.1,
			MBContact:      "airwave/1.0 (+https://github.com/sydlexius/airwave)",
		},
		Cache: CacheConfig{
			Path: "data/airwave.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("AW_OUTPUT_PATH"); v != "" {
		c.Scrape.OutputPath = v
	}
	if v := os.Getenv("AW_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("AW_ITUNES_COUNTRY"); v != "" {
		c.Enrich.ITunesCountry = v
	}
	if v := os.Getenv("AW_ITUNES_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Enrich.ITunesLimit = n
		}
	}
	if v := os.Getenv("AW_MB_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Enrich.MBLimit = n
		}
	}
	if v := os.Getenv("AW_MB_CONTACT"); v != "" {
		c.Enrich.MBContact = v
	}
	if v := os.Getenv("AW_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AW_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) validate() error {
	if len(c.Scrape.Hosts) == 0 {
		return fmt.Errorf("at least one scrape host is required")
	}
	if c.Scrape.OutputPath == "" {
		return fmt.Errorf("scrape output path is required")
	}
	if c.Cache.Path == "" {
		return fmt.Errorf("cache database path is required")
	}
	if c.Enrich.ITunesLimit < 0 || c.Enrich.MBLimit < 0 {
		return fmt.Errorf("lookup limits must not be negative")
	}
	if c.Enrich.ITunesDelaySeconds <= 0 {
		return fmt.Errorf("itunes delay must be positive")
	}
	if c.Enrich.MBDelaySeconds < 1.0 {
		return fmt.Errorf("musicbrainz delay must be at least 1 second")
	}
	return nil
}
