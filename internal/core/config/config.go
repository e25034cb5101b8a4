package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aevon-lab/flowrule/internal/core/transform"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FLOWRULE_"

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Jobs     JobsConfig     `koanf:"jobs"`

	// Lookups maps a lookup kind (country, city, asn) to the table it reads.
	Lookups map[string]string `koanf:"lookups"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type JobsConfig struct {
	ListLimit int `koanf:"list_limit"`
	CacheSize int `koanf:"cache_size"`
}

var lookupKinds = map[string]struct{}{
	transform.LookupCountry: {},
	transform.LookupCity:    {},
	transform.LookupASN:     {},
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Jobs.ListLimit <= 0 {
		return fmt.Errorf("jobs.list_limit must be > 0")
	}
	if c.Jobs.CacheSize <= 0 {
		return fmt.Errorf("jobs.cache_size must be > 0")
	}

	kinds := make([]string, 0, len(c.Lookups))
	for kind := range c.Lookups {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if _, ok := lookupKinds[kind]; !ok {
			return fmt.Errorf("unsupported lookup %q (must be: country, city, asn)", kind)
		}
		path := c.Lookups[kind]
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("lookups.%s is empty", kind)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("lookups.%s %q is not accessible: %w", kind, path, err)
		}
	}

	return nil
}

// Load parses config from defaults, file and env, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "postgres://localhost:5432/flowrule?sslmode=disable",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"jobs.list_limit":         50,
		"jobs.cache_size":         256,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// FLOWRULE_SERVER__PORT=9090 overrides server.port
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
