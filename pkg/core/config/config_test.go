package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr: got %s", cfg.Server.Addr)
	}
	if cfg.Provider.CacheTTLSeconds != 300 {
		t.Errorf("ttl: got %d", cfg.Provider.CacheTTLSeconds)
	}
	if cfg.Valuation.DefaultMoSPercent != 25 {
		t.Errorf("mos: got %v", cfg.Valuation.DefaultMoSPercent)
	}
	if cfg.Valuation.ClassifyBandPercent != 15 {
		t.Errorf("band: got %v", cfg.Valuation.ClassifyBandPercent)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoad_OverridesOnTopOfDefaults(t *testing.T) {
	yaml := `
server:
  addr: ":9090"
valuation:
  default_mos_percent: 30
  preset_file: "presets.hjson"
`
	path := filepath.Join(t.TempDir(), "fairvalue.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr override: got %s", cfg.Server.Addr)
	}
	if cfg.Valuation.DefaultMoSPercent != 30 {
		t.Errorf("mos override: got %v", cfg.Valuation.DefaultMoSPercent)
	}
	if cfg.Valuation.PresetFile != "presets.hjson" {
		t.Errorf("preset file: got %s", cfg.Valuation.PresetFile)
	}
	// Untouched sections keep their defaults.
	if cfg.Provider.CacheTTLSeconds != 300 {
		t.Errorf("ttl should stay at default, got %d", cfg.Provider.CacheTTLSeconds)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed yaml, got nil")
	}
}
