package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Runtime   RuntimeConfig   `toml:"runtime"`
	Transport TransportConfig `toml:"transport"`
	Timeline  TimelineConfig  `toml:"timeline"`
	Scene     SceneConfig     `toml:"scene"`
	Database  DatabaseConfig  `toml:"database"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Admin     AdminConfig     `toml:"admin"`
	Logging   LoggingConfig   `toml:"logging"`
}

type RuntimeConfig struct {
	TickRateHz uint32 `toml:"tick_rate_hz"`
	MaxTicks   uint64 `toml:"max_ticks"` // 0 = run until signalled
}

type TransportConfig struct {
	Kind         string `toml:"kind"` // "local" or "queue"
	Connected    bool   `toml:"connected"`
	InQueueSize  int    `toml:"in_queue_size"`
	OutQueueSize int    `toml:"out_queue_size"`
}

type TimelineConfig struct {
	EmitAddress string `toml:"emit_address"`
}

type SceneConfig struct {
	Path    string `toml:"path"`    // empty = no scene
	Charset string `toml:"charset"` // encoding of authored files, e.g. "utf-8", "big5"
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`    // empty = in-memory table store
	Schema          string        `toml:"schema"` // tables and migration history live here
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type SnapshotConfig struct {
	Table         string `toml:"table"`
	IntervalTicks uint64 `toml:"interval_ticks"` // 0 disables snapshots
}

type AdminConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	TokenHash   string `toml:"token_hash"` // bcrypt hash; empty disables auth
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads the TOML file at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(string(data), path)
}

// Parse decodes TOML text over the defaults. name is used in error messages.
func Parse(text, name string) (*Config, error) {
	cfg := Defaults()
	if _, err := toml.Decode(text, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Runtime.TickRateHz == 0 {
		return fmt.Errorf("runtime.tick_rate_hz must be positive")
	}
	switch c.Transport.Kind {
	case "local", "queue":
	default:
		return fmt.Errorf("transport.kind %q: want \"local\" or \"queue\"", c.Transport.Kind)
	}
	if c.Transport.InQueueSize <= 0 || c.Transport.OutQueueSize <= 0 {
		return fmt.Errorf("transport queue sizes must be positive")
	}
	if c.Database.DSN != "" && c.Database.Schema == "" {
		return fmt.Errorf("database.schema is required when database.dsn is set")
	}
	if c.Admin.Enabled && c.Admin.BindAddress == "" {
		return fmt.Errorf("admin.bind_address is required when admin is enabled")
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			TickRateHz: 60,
		},
		Transport: TransportConfig{
			Kind:         "local",
			Connected:    true,
			InQueueSize:  128,
			OutQueueSize: 256,
		},
		Timeline: TimelineConfig{
			EmitAddress: "/timeline/emit",
		},
		Scene: SceneConfig{
			Charset: "utf-8",
		},
		Database: DatabaseConfig{
			Schema:          "kitu",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			Table: "tick_snapshots",
		},
		Admin: AdminConfig{
			BindAddress: "127.0.0.1:7070",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
