// Package config loads the citysim server configuration: a YAML file
// checked against an embedded JSON schema, with secrets from the
// environment.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var schemaText string

// AdminKeyEnv names the environment variable holding the admin bearer token.
const AdminKeyEnv = "CITYSIM_ADMIN_KEY"

type Config struct {
	City    City    `yaml:"city"`
	Engine  Engine  `yaml:"engine"`
	Storage Storage `yaml:"storage"`
	API     API     `yaml:"api"`
	Log     Log     `yaml:"log"`

	AdminKey string `yaml:"-"` // from CITYSIM_ADMIN_KEY, never from the file
}

// City holds the parameters of a freshly founded city. They are ignored
// when a saved city is loaded.
type City struct {
	Name        string `yaml:"name"`
	Seed        int64  `yaml:"seed"`
	WaterOffset int    `yaml:"water_offset"`
	StartMoney  int    `yaml:"start_money"`
	StartYear   int    `yaml:"start_year"`
	Tax         int    `yaml:"tax"`
	Disasters   bool   `yaml:"disasters"`
}

type Engine struct {
	IntervalMS       int     `yaml:"interval_ms"`       // wall time per month at speed 1
	Speed            float64 `yaml:"speed"`             // 0 starts paused
	AutosaveQuarters int     `yaml:"autosave_quarters"` // save every N quarters
	HistoryTicks     int     `yaml:"history_ticks"`     // stats rows kept per city
}

type Storage struct {
	DBPath      string `yaml:"db_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

type API struct {
	Port           int `yaml:"port"`
	EditsPerMinute int `yaml:"edits_per_minute"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		City: City{
			Name:       "Newtown",
			Seed:       42,
			StartMoney: 20000,
			StartYear:  1950,
			Tax:        10,
			Disasters:  true,
		},
		Engine: Engine{
			IntervalMS:       1000,
			Speed:            1,
			AutosaveQuarters: 1,
			HistoryTicks:     1200,
		},
		Storage: Storage{
			DBPath:      "data/citysim.db",
			SnapshotDir: "data/snapshots",
		},
		API: API{
			Port:           8080,
			EditsPerMinute: 120,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// The admin key always comes from the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := Validate(raw); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.AdminKey = os.Getenv(AdminKeyEnv)
	return cfg, nil
}

var schema = jsonschema.MustCompileString("config.schema.json", schemaText)

// Validate checks a YAML document against the configuration schema.
func Validate(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	// The validator wants JSON-shaped values.
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	return nil
}

// Interval is the wall time of one tick at speed 1.
func (c Config) Interval() time.Duration {
	return time.Duration(c.Engine.IntervalMS) * time.Millisecond
}

// LogLevel maps the configured level name to a slog level.
func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
