// Package config resolves settings from flags, TADA_* environment variables,
// a .env file in the working directory and an optional TOML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backends a Table can be opened on.
const (
	BackendREST   = "rest"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultTable matches the table the hosted project ships with.
const DefaultTable = "TodoList"

// Config holds all application configuration.
type Config struct {
	URL     string // project URL of the hosted table
	Table   string
	Backend string

	DataFile   string // json backend
	SQLitePath string // sqlite backend

	Timeout time.Duration // HTTP client timeout, 0 = none

	LogLevel string
	LogFile  string // used while the TUI is running

	Theme   string
	NoColor bool

	ServeAddr string
	ServeKey  string // apikey the dev server requires, empty = open
}

// Dir is the per-user state directory (~/.tada).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada"), nil
}

// Load reads configuration. file may be empty, in which case
// ~/.tada/config.toml is used when present. overrides win over everything
// and are keyed like the config file ("backend", "log.level", ...).
func Load(file string, overrides map[string]any) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TADA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Supabase project env names, as a frontend .env would carry them.
	_ = v.BindEnv("url", "TADA_URL", "SUPABASE_URL", "VITE_SUPABASE_URL")

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else if dir, err := Dir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	cfg := &Config{
		URL:        strings.TrimSpace(v.GetString("url")),
		Table:      v.GetString("table"),
		Backend:    strings.ToLower(v.GetString("backend")),
		DataFile:   v.GetString("data_file"),
		SQLitePath: v.GetString("sqlite_path"),
		Timeout:    v.GetDuration("timeout"),
		LogLevel:   v.GetString("log.level"),
		LogFile:    v.GetString("log.file"),
		Theme:      v.GetString("theme"),
		NoColor:    v.GetBool("no_color"),
		ServeAddr:  v.GetString("serve.addr"),
		ServeKey:   v.GetString("serve.key"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("table", DefaultTable)
	v.SetDefault("backend", BackendREST)
	v.SetDefault("data_file", "todos.json")
	v.SetDefault("sqlite_path", "todos.db")
	v.SetDefault("timeout", 0)
	v.SetDefault("log.level", "info")
	if dir, err := Dir(); err == nil {
		v.SetDefault("log.file", filepath.Join(dir, "tada.log"))
	}
	v.SetDefault("theme", "classic")
	v.SetDefault("no_color", false)
	v.SetDefault("serve.addr", ":54321")
	v.SetDefault("serve.key", "")
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendREST, BackendJSON, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want rest, json, sqlite or memory)", c.Backend)
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("table must not be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
