// Package config loads the service's runtime configuration: a koanf
// instance layered with defaults, an optional YAML file, and
// environment overrides under the APP_ prefix with "__" as the
// section separator.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/symrange/symrange/internal/priceindex"
)

// Config is the full set of options the transport and process
// composition root read at startup. The core itself reads none of
// this; it receives shard count and capacity at construction.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Registry RegistryConfig `koanf:"registry"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the host:port http.Server.Addr should listen on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RegistryConfig controls the symbol registry's shard count and the
// per-symbol point capacity; both are capacity decisions, not scaling
// knobs, so they are read once at startup rather than reloaded.
type RegistryConfig struct {
	ShardCount int    `koanf:"shard_count"`
	Capacity   uint64 `koanf:"capacity"`
}

// KafkaConfig names the topic the optional ingest consumer reads.
// Brokers is empty by default; the composition root skips wiring the
// consumer entirely when no broker is configured, since a lone
// in-process generator is enough to demo the registry.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	Group   string   `koanf:"group"`
}

type LogConfig struct {
	Path  string `koanf:"path"`
	Level string `koanf:"level"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Registry.ShardCount <= 0 {
		return fmt.Errorf("registry.shard_count must be > 0")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	return nil
}

// Load parses config from an optional YAML file plus the APP_
// environment, validates it, and returns it. configPath may be empty,
// in which case only defaults and the environment apply.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.host":          "0.0.0.0",
		"server.port":          8080,
		"registry.shard_count": 64,
		"registry.capacity":    priceindex.DefaultCapacity,
		"kafka.topic":          "ticks",
		"kafka.group":          "symrange",
		"log.path":             "",
		"log.level":            "info",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
