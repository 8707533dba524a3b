// Package config loads application configuration from a YAML file with
// environment overrides. A .env file in the working directory, when present,
// is loaded into the environment first.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file consulted when no path is given.
const DefaultFile = "polytrader.yaml"

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// RedisConfig configures the checkpoint store and distributed lock. When
// disabled the engine keeps checkpoints in memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GammaConfig configures the market-data client.
type GammaConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Redis    RedisConfig  `yaml:"redis"`
	Gamma    GammaConfig  `yaml:"gamma"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{ListenAddr: ":8080"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Gamma:    GammaConfig{BaseURL: "https://gamma-api.polymarket.com"},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file (the explicit
// path must exist; the default path is optional), then environment
// variables.
func Load(path string) (*Config, error) {
	// Missing .env is fine; it is a local development convenience.
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, run on defaults.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.ListenAddr, "POLYTRADER_LISTEN_ADDR")
	setBool(&c.Redis.Enabled, "POLYTRADER_REDIS_ENABLED")
	setString(&c.Redis.Addr, "POLYTRADER_REDIS_ADDR")
	setString(&c.Redis.Password, "POLYTRADER_REDIS_PASSWORD")
	setInt(&c.Redis.DB, "POLYTRADER_REDIS_DB")
	setString(&c.Gamma.BaseURL, "POLYTRADER_GAMMA_URL")
	setString(&c.LogLevel, "POLYTRADER_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}
