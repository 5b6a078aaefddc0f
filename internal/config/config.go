// Package config loads quill.yml, .env and QUILL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the project configuration file looked up in the working
// directory.
const FileName = "quill.yml"

// EnvPrefix prefixes every environment override, e.g. QUILL_WORKERS.
const EnvPrefix = "QUILL"

// Conflict modes. An empty mode picks interactive on a terminal and skip
// otherwise.
const (
	ConflictSkip        = "skip"
	ConflictForce       = "force"
	ConflictDiff        = "diff"
	ConflictInteractive = "interactive"
)

// Config is the resolved project configuration.
type Config struct {
	Specs     string `mapstructure:"specs" yaml:"specs" validate:"required"`
	Output    string `mapstructure:"output" yaml:"output" validate:"required"`
	Templates string `mapstructure:"templates" yaml:"templates" validate:"required"`
	Workers   int    `mapstructure:"workers" yaml:"workers" validate:"gte=1,lte=256"`
	Conflict  string `mapstructure:"conflict" yaml:"conflict" validate:"omitempty,oneof=skip force diff interactive"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error silent"`

	// File is the configuration file that was read, empty when none was.
	File string `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when no quill.yml exists.
func DefaultConfig() *Config {
	return &Config{
		Specs:     "specs",
		Output:    ".",
		Templates: "python/v1",
		Workers:   4,
		LogLevel:  "warn",
	}
}

// Load reads the configuration. An empty path means FileName in the working
// directory, which may be absent; an explicit path must exist. A .env file
// next to the configuration file is loaded first without overriding
// variables already set, then QUILL_* variables override file values.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("specs", defaults.Specs)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("templates", defaults.Templates)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("conflict", defaults.Conflict)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := ""
	switch _, err := os.Stat(path); {
	case err == nil:
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		file = path
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.File = file
	cfg.Conflict = strings.ToLower(cfg.Conflict)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be between 1 and 256, got %v", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}

// ConflictMode resolves the effective conflict mode; an empty mode becomes
// interactive when stdin is a terminal and skip otherwise.
func (c *Config) ConflictMode(terminal bool) string {
	if c.Conflict != "" {
		return c.Conflict
	}
	if terminal {
		return ConflictInteractive
	}
	return ConflictSkip
}
