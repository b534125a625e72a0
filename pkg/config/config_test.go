package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Request.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Request.Retries)
	}
	if cfg.RequestTimeout() != time.Second {
		t.Errorf("expected 1s timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.Adapter.Baudrate != 0 {
		t.Errorf("expected adapter default baudrate, got %d", cfg.Adapter.Baudrate)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bafang.yaml")
	data := []byte(`adapter:
  name: BBS
  port: /dev/ttyUSB0
  gapMs: 800
request:
  timeoutMs: 3000
redis:
  addr: localhost:6379
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Adapter.Name != "BBS" || cfg.Adapter.Port != "/dev/ttyUSB0" {
		t.Errorf("adapter %+v", cfg.Adapter)
	}
	if cfg.Request.Retries != 3 {
		t.Errorf("unset retries should keep the default, got %d", cfg.Request.Retries)
	}
	ac := cfg.AdapterSettings(nil)
	if ac.Gap != 800*time.Millisecond {
		t.Errorf("expected 800ms gap, got %s", ac.Gap)
	}
	if cfg.Redis.Prefix != "bafang" {
		t.Errorf("expected default redis prefix, got %q", cfg.Redis.Prefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BAFANG_ADAPTER", "Virtual")
	t.Setenv("BAFANG_DEMO", "true")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Adapter.Name != "Virtual" || !cfg.Demo {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no adapter", func(c *Config) { c.Adapter.Name = "" }},
		{"negative gap", func(c *Config) { c.Adapter.GapMs = -1 }},
		{"zero timeout", func(c *Config) { c.Request.TimeoutMs = 0 }},
		{"too many retries", func(c *Config) { c.Request.Retries = 11 }},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
