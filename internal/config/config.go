package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	toml "github.com/pelletier/go-toml/v2"

	"taskpad/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"
	AppDirName            = "taskpad"
	ConfigPathEnv         = "TASKPAD_CONFIG"

	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Detail  string `toml:"detail"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
	Edit    string `toml:"edit"`
	Search  string `toml:"search"`
	Filter  string `toml:"filter"`
	Undo    string `toml:"undo"`
	Share   string `toml:"share"`
	// NextField moves focus between form fields.
	NextField string `toml:"next_field"`
	Save      string `toml:"save"`
	// FormStatus flips pending/completed while editing.
	FormStatus string `toml:"form_status"`
}

type Config struct {
	Backend       string `toml:"backend" env:"TASKPAD_BACKEND"`
	DefaultFilter string `toml:"default_filter" env:"TASKPAD_DEFAULT_FILTER"`
	LogFile       string `toml:"log_file" env:"TASKPAD_LOG_FILE"`
	LogLevel      string `toml:"log_level" env:"TASKPAD_LOG_LEVEL"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath prefers $TASKPAD_CONFIG, then the user config dir, then
// the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, AppDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

// LoadOrCreate reads path, writing the defaults there first if it does not
// exist. Environment variables override file values.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendMemory, BackendSQLite)
	}
	if _, err := task.ParseStatusFilter(c.DefaultFilter); err != nil {
		return fmt.Errorf("default_filter %q: %w", c.DefaultFilter, err)
	}
	return nil
}

// Filter is the parsed default_filter.
func (c Config) Filter() task.StatusFilter {
	f, err := task.ParseStatusFilter(c.DefaultFilter)
	if err != nil {
		return task.FilterAll
	}
	return f
}

func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// fillDefaults restores keys and fields that an older or hand-edited file
// left blank.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.DefaultFilter == "" {
		c.DefaultFilter = d.DefaultFilter
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))

	keys := []struct {
		dst *string
		def string
	}{
		{&c.Keys.Quit, d.Keys.Quit},
		{&c.Keys.Add, d.Keys.Add},
		{&c.Keys.Up, d.Keys.Up},
		{&c.Keys.Down, d.Keys.Down},
		{&c.Keys.Toggle, d.Keys.Toggle},
		{&c.Keys.Delete, d.Keys.Delete},
		{&c.Keys.Detail, d.Keys.Detail},
		{&c.Keys.Confirm, d.Keys.Confirm},
		{&c.Keys.Cancel, d.Keys.Cancel},
		{&c.Keys.Edit, d.Keys.Edit},
		{&c.Keys.Search, d.Keys.Search},
		{&c.Keys.Filter, d.Keys.Filter},
		{&c.Keys.Undo, d.Keys.Undo},
		{&c.Keys.Share, d.Keys.Share},
		{&c.Keys.NextField, d.Keys.NextField},
		{&c.Keys.Save, d.Keys.Save},
		{&c.Keys.FormStatus, d.Keys.FormStatus},
	}
	for _, k := range keys {
		if *k.dst == "" {
			*k.dst = k.def
		}
	}
}

func write(path string, cfg Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func Default() Config {
	return Config{
		Backend:       BackendMemory,
		DefaultFilter: string(task.FilterAll),
		LogLevel:      "INFO",
		Keys: Keymap{
			Quit:       "q",
			Add:        "a",
			Up:         "k",
			Down:       "j",
			Toggle:     " ",
			Delete:     "d",
			Detail:     "enter",
			Confirm:    "enter",
			Cancel:     "esc",
			Edit:       "e",
			Search:     "/",
			Filter:     "f",
			Undo:       "u",
			Share:      "s",
			NextField:  "tab",
			Save:       "ctrl+s",
			FormStatus: "ctrl+t",
		},
	}
}
