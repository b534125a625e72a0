// Package config holds the settings of the bafang tool
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/roffe/gobafang"
	"gopkg.in/yaml.v2"
)

// Config represents the complete configuration of the tool
type Config struct {
	Adapter AdapterConfig `yaml:"adapter"`
	Request RequestConfig `yaml:"request"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Demo    bool          `yaml:"demo"`
}

// AdapterConfig selects and parameterizes the transport
type AdapterConfig struct {
	Name     string  `yaml:"name"`
	Port     string  `yaml:"port"`
	Baudrate int     `yaml:"baudrate"` // 0 picks the adapter default
	CANRate  float64 `yaml:"canRate"`  // kbit/s
	GapMs    int     `yaml:"gapMs"`    // UART only
	Debug    bool    `yaml:"debug"`
}

// RequestConfig holds the request manager policy
type RequestConfig struct {
	TimeoutMs int `yaml:"timeoutMs"`
	Retries   int `yaml:"retries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RedisConfig enables the telemetry publisher when Addr is set
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Name:    "SLCAN",
			CANRate: 250,
			GapMs:   500,
		},
		Request: RequestConfig{
			TimeoutMs: 1000,
			Retries:   3,
		},
		Log: LogConfig{
			Level: "info",
		},
		Redis: RedisConfig{
			Prefix: "bafang",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path only applies the overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BAFANG_ADAPTER"); v != "" {
		cfg.Adapter.Name = v
	}
	if v := os.Getenv("BAFANG_PORT"); v != "" {
		cfg.Adapter.Port = v
	}
	if v := os.Getenv("BAFANG_REDIS"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BAFANG_DEMO"); v != "" {
		if demo, err := strconv.ParseBool(v); err == nil {
			cfg.Demo = demo
		}
	}
}

// Validate checks the values a file or flags can get wrong
func (c *Config) Validate() error {
	if c.Adapter.Name == "" {
		return fmt.Errorf("no adapter selected")
	}
	if c.Adapter.Baudrate < 0 {
		return fmt.Errorf("invalid baudrate %d", c.Adapter.Baudrate)
	}
	if c.Adapter.GapMs < 0 || c.Adapter.GapMs > 10000 {
		return fmt.Errorf("uart gap %d ms is outside [0, 10000]", c.Adapter.GapMs)
	}
	if c.Request.TimeoutMs <= 0 || c.Request.TimeoutMs > 60000 {
		return fmt.Errorf("request timeout %d ms is outside [1, 60000]", c.Request.TimeoutMs)
	}
	if c.Request.Retries < 0 || c.Request.Retries > 10 {
		return fmt.Errorf("request retries %d is outside [0, 10]", c.Request.Retries)
	}
	switch c.Log.Level {
	case "none", "off", "error", "warn", "warning", "info", "debug":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

// AdapterSettings returns the transport settings for gobafang.NewAdapter
func (c *Config) AdapterSettings(log gobafang.Logger) *gobafang.AdapterConfig {
	return &gobafang.AdapterConfig{
		Debug:        c.Adapter.Debug,
		Port:         c.Adapter.Port,
		PortBaudrate: c.Adapter.Baudrate,
		CANRate:      c.Adapter.CANRate,
		Gap:          time.Duration(c.Adapter.GapMs) * time.Millisecond,
		Logger:       log,
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Request.TimeoutMs) * time.Millisecond
}
