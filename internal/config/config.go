package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/streaks/internal/constants"
	"github.com/julianstephens/streaks/internal/utils"
)

// Database backend types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config is the optional on-disk configuration. Command-line flags override
// individual fields.
type Config struct {
	Timezone string         `toml:"timezone"`
	Debug    bool           `toml:"debug"`
	Database DatabaseConfig `toml:"database"`
	Grid     GridConfig     `toml:"grid"`
	API      APIConfig      `toml:"api"`
}

// DatabaseConfig selects the backing store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" (default) or "postgres"
	Path string `toml:"path,omitempty"` // only used for type=sqlite
	DSN  string `toml:"dsn,omitempty"`  // only used for type=postgres; must not contain a password
}

type GridConfig struct {
	Rows int `toml:"rows"`
}

type APIConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Timezone: constants.DefaultTimezone,
		Database: DatabaseConfig{
			Type: DatabaseSQLite,
			Path: constants.DefaultDBPath,
		},
		Grid: GridConfig{Rows: constants.DefaultGridRows},
		API:  APIConfig{Listen: constants.DefaultListenAddr},
	}
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := Default()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.Database.Type == "" {
		c.Database.Type = d.Database.Type
	}
	if c.Database.Type == DatabaseSQLite && c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Grid.Rows == 0 {
		c.Grid.Rows = d.Grid.Rows
	}
	if c.API.Listen == "" {
		c.API.Listen = d.API.Listen
	}
}

// Validate checks field values after defaults are applied.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case DatabaseSQLite:
	case DatabasePostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn is required for type=postgres")
		}
	default:
		return fmt.Errorf("unknown database.type %q (expected %s or %s)", c.Database.Type, DatabaseSQLite, DatabasePostgres)
	}

	if c.Grid.Rows < 1 || c.Grid.Rows > constants.MaxGridRows {
		return fmt.Errorf("grid.rows must be between 1 and %d, got %d", constants.MaxGridRows, c.Grid.Rows)
	}

	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Load reads the config at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	f, err := os.Open(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", expanded, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
	}
	return cfg, nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(expanded)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", expanded, err)
	}
	return nil
}
