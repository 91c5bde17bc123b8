// Package config handles loading and resolving encore configuration.
// Resolution order (later layers win):
//  1. built-in defaults
//  2. config.json in the current working directory
//  3. .env in the current working directory
//  4. process environment (ENCORE_BASE_URL, ENCORE_DB_PATH, ENCORE_LOCALE)
//  5. CLI flags (--base-url, --db, --locale)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultEnvFile     = ".env"
	DefaultFormat      = "table"
	DefaultTimeout     = 5 * time.Second
	DefaultRate        = 2.0
	DefaultBaseURL     = "https://api.huset.example/v2/"
	DefaultLocale      = "sv"
	DefaultTimezone    = "Europe/Stockholm"
	DefaultRefreshCron = "0 */6 * * *"

	EnvBaseURL = "ENCORE_BASE_URL"
	EnvDBPath  = "ENCORE_DB_PATH"
	EnvLocale  = "ENCORE_LOCALE"
)

// Keys lists the config.json keys accepted by Get and Set.
var Keys = []string{"base_url", "default_format", "timeout", "rate", "db_path", "locale", "timezone", "refresh_cron"}

// File is the on-disk representation of config.json.
type File struct {
	BaseURL       string  `json:"base_url,omitempty" validate:"omitempty,url"`
	DefaultFormat string  `json:"default_format,omitempty" validate:"omitempty,oneof=table json jsonl csv tsv md yaml"`
	Timeout       string  `json:"timeout,omitempty" validate:"omitempty,duration"`
	Rate          float64 `json:"rate,omitempty" validate:"gte=0"`
	DBPath        string  `json:"db_path,omitempty"`
	Locale        string  `json:"locale,omitempty" validate:"omitempty,oneof=sv en"`
	Timezone      string  `json:"timezone,omitempty" validate:"omitempty,timezone"`
	RefreshCron   string  `json:"refresh_cron,omitempty"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	BaseURL     string        `validate:"required,url"`
	Format      string        `validate:"required,oneof=table json jsonl csv tsv md yaml"`
	Timeout     time.Duration `validate:"gt=0"`
	Rate        float64       `validate:"gt=0"`
	DBPath      string        `validate:"required"`
	Locale      string        `validate:"required,oneof=sv en"`
	Timezone    string        `validate:"required,timezone"`
	RefreshCron string
	ConfigPath  string // path of the config.json that was loaded (empty if none found)
	EnvPath     string // path of the .env that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Overrides carries the CLI flag layer. Empty fields do not override.
type Overrides struct {
	BaseURL string
	DBPath  string
	Locale  string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// Load resolves configuration from all sources. A config.json that exists
// but does not parse or validate is an error; a missing one is not.
func Load(flags Overrides) (*Config, error) {
	cfg := &Config{
		BaseURL:     DefaultBaseURL,
		Format:      DefaultFormat,
		Timeout:     DefaultTimeout,
		Rate:        DefaultRate,
		Locale:      DefaultLocale,
		Timezone:    DefaultTimezone,
		RefreshCron: DefaultRefreshCron,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		applyFile(cfg, f, path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: .env, then the real environment on top of it
	env := loadEnvFile(cfg)
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return env[key]
	}
	if v := lookup(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := lookup(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := lookup(EnvLocale); v != "" {
		cfg.Locale = v
	}

	// Layer 3: CLI flags (highest priority)
	if flags.BaseURL != "" {
		cfg.BaseURL = flags.BaseURL
	}
	if flags.DBPath != "" {
		cfg.DBPath = flags.DBPath
	}
	if flags.Locale != "" {
		cfg.Locale = flags.Locale
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".encore", "encore.db")
		}
	}

	return cfg, nil
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", describe(err))
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Get returns the resolved value for a config.json key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "base_url":
		return c.BaseURL, nil
	case "default_format", "format":
		return c.Format, nil
	case "timeout":
		return c.Timeout.String(), nil
	case "rate":
		return strconv.FormatFloat(c.Rate, 'f', -1, 64), nil
	case "db_path":
		return c.DBPath, nil
	case "locale":
		return c.Locale, nil
	case "timezone":
		return c.Timezone, nil
	case "refresh_cron":
		return c.RefreshCron, nil
	}
	return "", unknownKey(key)
}

// Set assigns a config.json key from its string form and validates the
// result.
func (f *File) Set(key, val string) error {
	switch key {
	case "base_url":
		f.BaseURL = val
	case "default_format", "format":
		f.DefaultFormat = val
	case "timeout":
		f.Timeout = val
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("rate must be a number")
		}
		f.Rate = r
	case "db_path":
		f.DBPath = val
	case "locale":
		f.Locale = val
	case "timezone":
		f.Timezone = val
	case "refresh_cron":
		f.RefreshCron = val
	default:
		return unknownKey(key)
	}
	return f.Validate()
}

// Validate checks a config.json's values.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("invalid config.json: %w", describe(err))
	}
	return nil
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(Keys, ", "))
}

// describe flattens validator errors into "field: rule" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// LoadFile reads config.json from the current working directory.
func LoadFile() (*File, string, error) {
	return loadFile()
}

// loadFile attempts to read config.json from the current working directory.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, "", err
	}
	return &f, path, nil
}

// loadEnvFile reads .env from the working directory without touching the
// process environment.
func loadEnvFile(cfg *Config) map[string]string {
	path, err := filepath.Abs(DefaultEnvFile)
	if err != nil {
		return nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	cfg.EnvPath = path
	return env
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.Locale != "" {
		cfg.Locale = f.Locale
	}
	if f.Timezone != "" {
		cfg.Timezone = f.Timezone
	}
	if f.RefreshCron != "" {
		cfg.RefreshCron = f.RefreshCron
	}
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `encore config init`.
func Template() File {
	return File{
		BaseURL:       DefaultBaseURL,
		DefaultFormat: DefaultFormat,
		Timeout:       DefaultTimeout.String(),
		Rate:          DefaultRate,
		Locale:        DefaultLocale,
		Timezone:      DefaultTimezone,
		RefreshCron:   DefaultRefreshCron,
	}
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
