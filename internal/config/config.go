// Package config handles loading roteiro configuration.
//
// Configuration is read from a YAML file. When no path is given the
// loader falls back to ./roteiro.yaml and then to the XDG config
// directory (~/.config/roteiro/config.yaml). A missing file yields the
// defaults, so a bare binary runs without any setup.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names for the step storage.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port int  `yaml:"port,omitempty"`
	CORS bool `yaml:"cors,omitempty"`
}

// StorageConfig selects the step storage backend.
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty"` // memory, file, sqlite
	Path    string `yaml:"path,omitempty"`    // directory (file) or db file (sqlite)

	// EncryptionKey enables encryption at rest when set. Hex-encoded,
	// 32 bytes (64 hex chars) for AES-256.
	EncryptionKey string `yaml:"encryption_key,omitempty"`

	// MaskPII masks CPF numbers inside stored values.
	MaskPII bool `yaml:"mask_pii,omitempty"`
}

// RedisConfig enables the Redis session store when Addr is set.
// With an empty Addr sessions live in process memory.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty"`
	Prefix   string        `yaml:"prefix,omitempty"`
}

// Config is the top-level configuration for roteiro.
type Config struct {
	Server       ServerConfig  `yaml:"server,omitempty"`
	Storage      StorageConfig `yaml:"storage,omitempty"`
	Redis        RedisConfig   `yaml:"redis,omitempty"`
	HistoryLimit int           `yaml:"history_limit,omitempty"`
	LogLevel     string        `yaml:"log_level,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server:  ServerConfig{Port: 8322, CORS: true},
		Storage: StorageConfig{Backend: BackendFile, Path: ".roteiro/data"},
		Redis: RedisConfig{
			TTL: 12 * time.Hour,
		},
		HistoryLimit: 200,
		LogLevel:     "info",
	}
}

// Dir returns the XDG config directory for roteiro.
func Dir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "roteiro")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "roteiro")
}

// Load reads the config from path. An empty path tries ./roteiro.yaml
// and then the XDG location. A missing file returns Default.
func Load(path string) (Config, error) {
	if path != "" {
		return loadFrom(path)
	}
	if _, err := os.Stat("roteiro.yaml"); err == nil {
		return loadFrom("roteiro.yaml")
	}
	if dir := Dir(); dir != "" {
		return loadFrom(filepath.Join(dir, "config.yaml"))
	}
	return Default(), nil
}

func loadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to a specific path, creating parent
// directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Storage.EncryptionKey != "" {
		key, err := hex.DecodeString(c.Storage.EncryptionKey)
		if err != nil {
			return fmt.Errorf("storage encryption_key is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("storage encryption_key must be 32 bytes, got %d", len(key))
		}
	}
	return nil
}

// EncryptionKeyBytes decodes the configured key. Validation has already
// checked length and encoding; callers get nil when no key is set.
func (c StorageConfig) EncryptionKeyBytes() []byte {
	if c.EncryptionKey == "" {
		return nil
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil
	}
	return key
}
