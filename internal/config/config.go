package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"
	"unicode/utf8"

	"stringfinder/internal/fence"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".strfind.yaml"

// Config holds all strfind configuration.
type Config struct {
	// Delimiters, each a single character
	Quote  string `yaml:"quote"`
	Escape string `yaml:"escape"`

	// Number of inputs extracted in parallel
	Concurrency int `yaml:"concurrency"`

	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig configures how literals are written.
type OutputConfig struct {
	Format    string `yaml:"format"`    // text, json, yaml, mangle, markdown, styled
	Separator string `yaml:"separator"` // newline, null (text format only)
	Render    bool   `yaml:"render"`    // render markdown for the terminal
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Path   string `yaml:"path"`   // empty disables the store
	Driver string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Valid option values.
var (
	ValidFormats    = []string{"text", "json", "yaml", "mangle", "markdown", "styled"}
	ValidSeparators = []string{"newline", "null"}
	ValidDrivers    = []string{"sqlite", "sqlite3"}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Quote:       string(fence.DefaultQuote),
		Escape:      string(fence.DefaultEscape),
		Concurrency: 4,

		Output: OutputConfig{
			Format:    "text",
			Separator: "newline",
		},

		Store: StoreConfig{
			Driver: "sqlite",
		},

		Watch: WatchConfig{
			Debounce: "200ms",
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   filepath.Join(".strfind", "logs"),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Only a value
// that cannot be parsed is an error.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("STRFIND_QUOTE"); v != "" {
		c.Quote = v
	}
	if v := os.Getenv("STRFIND_ESCAPE"); v != "" {
		c.Escape = v
	}
	if v := os.Getenv("STRFIND_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("STRFIND_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("STRFIND_DB_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("STRFIND_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STRFIND_CONCURRENCY %q: %w", v, err)
		}
		c.Concurrency = n
	}
	return nil
}

// Delimiters returns the configured quote and escape runes.
func (c *Config) Delimiters() (fence.Delimiters, error) {
	q, err := singleRune("quote", c.Quote)
	if err != nil {
		return fence.Delimiters{}, err
	}
	e, err := singleRune("escape", c.Escape)
	if err != nil {
		return fence.Delimiters{}, err
	}
	d := fence.Delimiters{Quote: q, Escape: e}
	if err := d.Validate(); err != nil {
		return fence.Delimiters{}, err
	}
	return d, nil
}

func singleRune(field, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", field, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return 0, fmt.Errorf("%s is not valid UTF-8: %q", field, s)
	}
	return r, nil
}

// GetDebounce returns the watch debounce window as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.Delimiters(); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if !slices.Contains(ValidFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, ValidFormats)
	}
	if !slices.Contains(ValidSeparators, c.Output.Separator) {
		return fmt.Errorf("invalid output separator: %s (valid: %v)", c.Output.Separator, ValidSeparators)
	}
	if !slices.Contains(ValidDrivers, c.Store.Driver) {
		return fmt.Errorf("invalid store driver: %s (valid: %v)", c.Store.Driver, ValidDrivers)
	}
	return nil
}

// IsStoreEnabled returns whether extraction runs are recorded.
func (c *Config) IsStoreEnabled() bool {
	return c.Store.Path != ""
}
