package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/papapumpkin/orbitflow/internal/orbit"
)

// ArchiveConfig controls the SQLite run archive.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TelemetryConfig controls the JSONL event stream.
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// Config holds all runtime configuration for an orbitflow invocation.
// Values are populated from .orbitflow.yaml, ORBITFLOW_* env vars, and CLI flags.
type Config struct {
	Units        string          `mapstructure:"units"`
	G            float64         `mapstructure:"g"`
	CentralMass  float64         `mapstructure:"central_mass"`
	BodyMass     float64         `mapstructure:"body_mass"`
	Perturbation float64         `mapstructure:"perturbation"`
	Steps        int             `mapstructure:"steps"`
	Dt           float64         `mapstructure:"dt"`
	Seed         uint64          `mapstructure:"seed"`
	OutDir       string          `mapstructure:"out_dir"`
	LogLevel     string          `mapstructure:"log_level"`
	Verbose      bool            `mapstructure:"verbose"`
	Archive      ArchiveConfig   `mapstructure:"archive"`
	Telemetry    TelemetryConfig `mapstructure:"telemetry"`
}

// SetDefaults registers the built-in defaults with viper.
func SetDefaults() {
	viper.SetDefault("units", orbit.UnitsSI.Name)
	viper.SetDefault("g", 0.0)
	viper.SetDefault("central_mass", 1e30)
	viper.SetDefault("body_mass", 1e24)
	viper.SetDefault("perturbation", 0.0)
	viper.SetDefault("steps", 1000)
	viper.SetDefault("dt", 0.05)
	viper.SetDefault("seed", 1)
	viper.SetDefault("out_dir", ".")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("verbose", false)
	viper.SetDefault("archive.enabled", true)
	viper.SetDefault("archive.path", ".orbitflow/runs.db")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.dir", ".orbitflow/telemetry")
}

// Decode reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. It does not validate,
// so callers can apply flag overrides first.
func Decode() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// Load is Decode followed by Validate.
func Load() (Config, error) {
	cfg, err := Decode()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LogLevel resolves the slog level from log_level and verbose alone, so a
// bad simulation setting does not stop logging from being set up.
func LogLevel() (slog.Level, error) {
	SetDefaults()
	if viper.GetBool("verbose") {
		return slog.LevelDebug, nil
	}
	level, err := ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("config: %w", err)
	}
	return level, nil
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := orbit.LookupUnits(c.Units); err != nil {
		errs = append(errs, err)
	}
	if c.G < 0 || math.IsNaN(c.G) {
		errs = append(errs, fmt.Errorf("g must be >= 0 (0 uses the unit system), got %v", c.G))
	}
	if !(c.CentralMass > 0) {
		errs = append(errs, fmt.Errorf("central_mass must be positive, got %v", c.CentralMass))
	}
	if c.BodyMass < 0 || math.IsNaN(c.BodyMass) {
		errs = append(errs, fmt.Errorf("body_mass must be >= 0, got %v", c.BodyMass))
	}
	if c.Perturbation < 0 || math.IsNaN(c.Perturbation) || math.IsInf(c.Perturbation, 0) {
		errs = append(errs, fmt.Errorf("perturbation must be a finite value >= 0, got %v", c.Perturbation))
	}
	if c.Steps <= 0 {
		errs = append(errs, fmt.Errorf("steps must be positive, got %d", c.Steps))
	}
	if !(c.Dt > 0) {
		errs = append(errs, fmt.Errorf("dt must be positive, got %v", c.Dt))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		errs = append(errs, errors.New("archive.path is required when the archive is enabled"))
	}
	if c.Telemetry.Enabled && c.Telemetry.Dir == "" {
		errs = append(errs, errors.New("telemetry.dir is required when telemetry is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Gravity resolves the gravitational constant: an explicit g wins over the
// unit system's constant.
func (c Config) Gravity() (float64, error) {
	u, err := orbit.LookupUnits(c.Units)
	if err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return u.Gravity(c.G), nil
}

// Params builds integrator parameters from the config.
func (c Config) Params() (orbit.Params, error) {
	g, err := c.Gravity()
	if err != nil {
		return orbit.Params{}, err
	}
	return orbit.Params{G: g, Steps: c.Steps, Dt: c.Dt}, nil
}

// ParseLevel maps a log_level value onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", s)
	}
}
