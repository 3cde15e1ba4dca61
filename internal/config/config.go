package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable consulted when no --config flag is given.
const PathEnv = "ADCPROGRESS_CONFIG"

// Config holds the project calendar, goals, storage and logging settings.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Goals   GoalsConfig   `yaml:"goals"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Locale  string        `yaml:"locale" env:"ADCPROGRESS_LOCALE"`
}

// ProjectConfig describes the reporting calendar.
type ProjectConfig struct {
	Year       int `yaml:"year" env:"ADCPROGRESS_YEAR"`
	StartWeek  int `yaml:"start_week" env:"ADCPROGRESS_START_WEEK"`
	EndWeek    int `yaml:"end_week" env:"ADCPROGRESS_END_WEEK"`
	TargetWeek int `yaml:"target_week" env:"ADCPROGRESS_TARGET_WEEK"`
}

// GoalsConfig holds the goal ceiling per category filter.
type GoalsConfig struct {
	Total int `yaml:"total" env:"ADCPROGRESS_GOAL_TOTAL"`
	ADC   int `yaml:"adc" env:"ADCPROGRESS_GOAL_ADC"`
	PAC   int `yaml:"pac" env:"ADCPROGRESS_GOAL_PAC"`
}

// StorageConfig selects and configures the Record Store backend.
type StorageConfig struct {
	Backend       string `yaml:"backend" env:"ADCPROGRESS_STORE"` // memory, sqlite or redis
	Path          string `yaml:"path" env:"ADCPROGRESS_STORE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"ADCPROGRESS_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"ADCPROGRESS_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"ADCPROGRESS_REDIS_DB"`
	Key           string `yaml:"key" env:"ADCPROGRESS_STORE_KEY"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level" env:"ADCPROGRESS_LOG_LEVEL"`
}

// Defaults returns the configuration used when no file or environment overrides apply.
func Defaults() Config {
	return Config{
		Project: ProjectConfig{Year: 2024, StartWeek: 23, EndWeek: 35, TargetWeek: 35},
		Goals:   GoalsConfig{Total: 494, ADC: 318, PAC: 176},
		Storage: StorageConfig{
			Backend:   "sqlite",
			Path:      "adcprogress.db",
			RedisAddr: "localhost:6379",
			Key:       "adcReportData_v3",
		},
		Logging: LoggingConfig{Level: "info"},
		Locale:  "es-CL",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or at
// $ADCPROGRESS_CONFIG when path is empty), then environment overrides.
// The result is validated.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg; keys absent from the file keep their current value.
func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate rejects configurations the analytics engine cannot use.
func (c Config) Validate() error {
	p := c.Project
	if p.StartWeek <= 0 || p.EndWeek < p.StartWeek {
		return fmt.Errorf("invalid week range %d..%d", p.StartWeek, p.EndWeek)
	}
	if p.TargetWeek < p.StartWeek {
		return fmt.Errorf("target week %d is before start week %d", p.TargetWeek, p.StartWeek)
	}
	if p.Year <= 0 {
		return fmt.Errorf("invalid year %d", p.Year)
	}
	for name, goal := range map[string]int{"total": c.Goals.Total, "adc": c.Goals.ADC, "pac": c.Goals.PAC} {
		if goal <= 0 {
			return fmt.Errorf("goal %s must be > 0, got %d", name, goal)
		}
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q: supported backends are memory, sqlite, redis", c.Storage.Backend)
	}
	return nil
}

// Weeks returns the configured inclusive week range in order.
func (p ProjectConfig) Weeks() []int {
	weeks := make([]int, 0, p.EndWeek-p.StartWeek+1)
	for w := p.StartWeek; w <= p.EndWeek; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}
