// Package config handles configuration loading and validation for todo.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/todo/internal/core/todo"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists every supported storage backend.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}
}

// Config holds the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Form    FormConfig    `yaml:"form"`
	List    ListConfig    `yaml:"list"`
	Seed    *bool         `yaml:"seed"`  // nil means seed
	Theme   string        `yaml:"theme"` // used instead of terminal detection when set
	DataDir string        `yaml:"-"`     // set by caller, not from config file
}

// StorageConfig selects and tunes the storage backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DatabaseConfig holds connection pool settings for the sqlite backend.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// FormConfig holds the create form's status delays.
type FormConfig struct {
	SubmitDelay time.Duration `yaml:"submit_delay"`
	ResetDelay  time.Duration `yaml:"reset_delay"`
}

// ListConfig holds list defaults.
type ListConfig struct {
	DefaultSort string `yaml:"default_sort"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "todo:",
			},
			Database: DatabaseConfig{
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				BusyTimeout:  5000,
			},
		},
		Form: FormConfig{
			SubmitDelay: 700 * time.Millisecond,
			ResetDelay:  2600 * time.Millisecond,
		},
		List: ListConfig{
			DefaultSort: string(todo.DefaultSort),
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = defaults.Storage.Redis.Addr
	}
	if c.Storage.Redis.Prefix == "" {
		c.Storage.Redis.Prefix = defaults.Storage.Redis.Prefix
	}
	if c.Storage.Database.MaxOpenConns == 0 {
		c.Storage.Database.MaxOpenConns = defaults.Storage.Database.MaxOpenConns
	}
	if c.Storage.Database.MaxIdleConns == 0 {
		c.Storage.Database.MaxIdleConns = defaults.Storage.Database.MaxIdleConns
	}
	if c.Storage.Database.BusyTimeout == 0 {
		c.Storage.Database.BusyTimeout = defaults.Storage.Database.BusyTimeout
	}
	if c.List.DefaultSort == "" {
		c.List.DefaultSort = defaults.List.DefaultSort
	}
}

// SeedEnabled reports whether sample todos are shown before anything is
// persisted.
func (c *Config) SeedEnabled() bool {
	return c.Seed == nil || *c.Seed
}

// DefaultSort returns the configured list sort key.
func (c *Config) DefaultSort() todo.SortKey {
	key, err := todo.ParseSortKey(c.List.DefaultSort)
	if err != nil {
		return todo.DefaultSort
	}
	return key
}

// StorageDir returns the directory used by the file backend.
func (c *Config) StorageDir() string {
	return filepath.Join(c.DataDir, "storage")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "todo.log")
}
