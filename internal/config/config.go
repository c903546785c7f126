package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Feeds    FeedsConfig    `yaml:"feeds"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Browser  BrowserConfig  `yaml:"browser"`
	Output   OutputConfig   `yaml:"output"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FeedsConfig lists identifier sources in collection order.
type FeedsConfig struct {
	Pages []PageFeed `yaml:"pages"`
	RSS   []RSSFeed  `yaml:"rss"`
}

// PageFeed is one infinite-scroll feed page.
type PageFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// RSSFeed is one RSS-mirror feed entry.
type RSSFeed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// HarvestConfig bounds collection and the per-item retry loop.
type HarvestConfig struct {
	Cap         int    `yaml:"cap"`
	MaxAttempts int    `yaml:"max_attempts"`
	Backoff     string `yaml:"backoff"`
	CooldownMin string `yaml:"cooldown_min"`
	CooldownMax string `yaml:"cooldown_max"`
	// DetailStyle selects the detail URL shape: "modal" or "video".
	DetailStyle string `yaml:"detail_style"`
}

// ParseBackoff returns the inter-attempt backoff as a duration.
func (h HarvestConfig) ParseBackoff() time.Duration {
	return parseDuration(h.Backoff, 3*time.Second)
}

// ParseCooldownMin returns the lower inter-item cooldown bound.
func (h HarvestConfig) ParseCooldownMin() time.Duration {
	return parseDuration(h.CooldownMin, 3*time.Second)
}

// ParseCooldownMax returns the upper inter-item cooldown bound.
func (h HarvestConfig) ParseCooldownMax() time.Duration {
	return parseDuration(h.CooldownMax, 7*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// BrowserConfig configures the interactive browsing session.
type BrowserConfig struct {
	Headless bool `yaml:"headless"`
	// CookieFile holds session cookies exported from a logged-in
	// browser, used by the plain-HTTP detail fetcher.
	CookieFile string `yaml:"cookie_file"`
	// SettleSeconds is how long to wait after navigation for the detail
	// API call to land in the response log.
	SettleSeconds int `yaml:"settle_seconds"`
}

// OutputConfig configures record destinations beyond the database.
type OutputConfig struct {
	// DumpDir receives one NDJSON file of normalized records per run.
	DumpDir string `yaml:"dump_dir"`
	// DebugPayloadDir, when set, receives raw located payloads for
	// manual schema inspection.
	DebugPayloadDir string `yaml:"debug_payload_dir"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./dystats.db"},
		Feeds: FeedsConfig{
			Pages: []PageFeed{
				{Name: "精选", URL: "https://www.douyin.com/jingxuan"},
				{Name: "推荐", URL: "https://www.douyin.com/?recommend=1"},
			},
		},
		Harvest: HarvestConfig{
			Cap:         500,
			MaxAttempts: 3,
			Backoff:     "3s",
			CooldownMin: "3s",
			CooldownMax: "7s",
			DetailStyle: "modal",
		},
		Browser: BrowserConfig{
			SettleSeconds: 4,
		},
		Output: OutputConfig{DumpDir: "./dumps"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DYSTATS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DYSTATS_COOKIE_FILE"); v != "" {
		cfg.Browser.CookieFile = v
	}
	if v := os.Getenv("DYSTATS_DUMP_DIR"); v != "" {
		cfg.Output.DumpDir = v
	}
}
