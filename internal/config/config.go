// Package config loads station settings from a config file, environment
// variables, and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/frcattend/attend/internal/model"
)

// Config holds everything a station reads at startup. All values are
// injected into the components that need them; nothing reads config at
// runtime.
type Config struct {
	Database DatabaseConfig `mapstructure:"db"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Season   SeasonConfig   `mapstructure:"season"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig locates the attendance database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ScanConfig tunes the intake session.
type ScanConfig struct {
	// DebounceSeconds is how long a badge code is suppressed after a
	// scan before the same badge can be processed again.
	DebounceSeconds int `mapstructure:"debounce_seconds"`

	// CameraNumber selects the capture device for a camera-backed decode
	// source. The built-in reader source ignores it.
	CameraNumber int `mapstructure:"camera_number"`

	// PasswordHash is the bcrypt hash gating exit from scan mode.
	// Empty disables the gate.
	PasswordHash string `mapstructure:"password_hash"`

	// Survey names the survey presented at checkin, by title.
	// Empty means no interstitial survey.
	Survey string `mapstructure:"survey"`
}

// SeasonConfig sets the reporting period boundaries.
type SeasonConfig struct {
	// SchoolYearStart and BuildSeasonStart are "YYYY-MM-DD" dates used
	// by attendance summaries.
	SchoolYearStart  string `mapstructure:"schoolyear_start"`
	BuildSeasonStart string `mapstructure:"buildseason_start"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DebounceWindow converts the configured seconds to a duration.
func (c ScanConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceSeconds) * time.Second
}

// SchoolYear parses the configured school year boundary.
func (c SeasonConfig) SchoolYear() (model.Date, error) {
	return model.ParseDate(c.SchoolYearStart)
}

// BuildSeason parses the configured build season boundary.
func (c SeasonConfig) BuildSeason() (model.Date, error) {
	return model.ParseDate(c.BuildSeasonStart)
}

// Load reads configuration with precedence: environment variables over
// config file over defaults.
//
// With an empty path, attend.yaml is searched for in the working directory
// and ~/.config/attend; a missing file is fine, defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db.path", "attendance.db")
	v.SetDefault("scan.debounce_seconds", 5)
	v.SetDefault("scan.camera_number", 0)
	v.SetDefault("scan.password_hash", "")
	v.SetDefault("scan.survey", "")
	v.SetDefault("season.schoolyear_start", "2026-09-01")
	v.SetDefault("season.buildseason_start", "2027-01-04")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("attend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/attend")
	}

	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults and environment only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a
// session.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("config: db.path must not be empty")
	}
	if c.Scan.DebounceSeconds <= 0 {
		return fmt.Errorf("config: scan.debounce_seconds must be positive")
	}
	if _, err := c.Season.SchoolYear(); err != nil {
		return fmt.Errorf("config: season.schoolyear_start: %w", err)
	}
	if _, err := c.Season.BuildSeason(); err != nil {
		return fmt.Errorf("config: season.buildseason_start: %w", err)
	}
	return nil
}
