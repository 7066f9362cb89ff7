package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at startup. Values come from
// an optional YAML file, then BURROW_* environment variables on top.
type Config struct {
	Port      string `yaml:"port"`
	DBPath    string `yaml:"db-path"`
	LogLevel  string `yaml:"log-level"`
	LogFormat string `yaml:"log-format"`

	Chores ChoreConfig `yaml:"chores"`
}

type ChoreConfig struct {
	HorizonDays       int    `yaml:"horizon-days"`
	PreviewCount      int    `yaml:"preview-count"`
	WeeklyAnchor      string `yaml:"weekly-anchor"`
	PruneOnReschedule bool   `yaml:"prune-on-reschedule"`
}

func defaults() *Config {
	return &Config{
		Port:      "8080",
		DBPath:    "burrow.db",
		LogLevel:  "info",
		LogFormat: "text",
		Chores: ChoreConfig{
			HorizonDays:  14,
			PreviewCount: 5,
			WeeklyAnchor: "monday",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BURROW_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("BURROW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("BURROW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BURROW_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("BURROW_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chores.HorizonDays = n
		}
	}
	if v := os.Getenv("BURROW_PREVIEW_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chores.PreviewCount = n
		}
	}
	if v := os.Getenv("BURROW_WEEKLY_ANCHOR"); v != "" {
		cfg.Chores.WeeklyAnchor = v
	}
	if v := os.Getenv("BURROW_PRUNE_ON_RESCHEDULE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Chores.PruneOnReschedule = b
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Chores.HorizonDays < 1 {
		return fmt.Errorf("horizon-days must be at least 1, got %d", cfg.Chores.HorizonDays)
	}
	if cfg.Chores.PreviewCount < 1 {
		return fmt.Errorf("preview-count must be at least 1, got %d", cfg.Chores.PreviewCount)
	}
	if _, err := ParseWeekday(cfg.Chores.WeeklyAnchor); err != nil {
		return err
	}
	return nil
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseWeekday maps a lowercase-insensitive weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return d, nil
}
