// Package config loads service configuration from a YAML file, with
// environment variables (via .env) covering secrets like DATABASE_URL.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the full service configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Provider struct {
		QuoteBaseURL    string `yaml:"quote_base_url"`
		ScrapeBaseURL   string `yaml:"scrape_base_url"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"provider"`
	Valuation struct {
		DefaultMoSPercent   float64 `yaml:"default_mos_percent"`
		ClassifyBandPercent float64 `yaml:"classify_band_percent"`
		PresetFile          string  `yaml:"preset_file"`
	} `yaml:"valuation"`
	Cache struct {
		RunDir string `yaml:"run_dir"`
	} `yaml:"cache"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Provider.CacheTTLSeconds = 300
	cfg.Valuation.DefaultMoSPercent = 25
	cfg.Valuation.ClassifyBandPercent = 15
	return cfg
}

// Load reads a YAML config file on top of the defaults. A missing file is
// not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
