package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ecmd/internal/tmpl"
)

// EnvPath names the environment variable that points at the config file.
const EnvPath = "ECMD_CONFIG"

type Config struct {
	// Shell is the command line that runs one shell command, split with
	// shell quoting rules. Empty means COMSPEC or SHELL.
	Shell   string `yaml:"shell"`
	Dialect string `yaml:"dialect"`

	PluginPaths    []string `yaml:"plugin_paths"`
	FileCompletion bool     `yaml:"file_completion"`
	Echo           *bool    `yaml:"echo"`
	ActivityLog    string   `yaml:"activity_log"`

	// DrivePaths maps a drive letter to the directory it was last left in.
	DrivePaths map[string]string `yaml:"drive_paths"`

	Prompt PromptConfig `yaml:"prompt"`
}

type PromptConfig struct {
	// Format is a text/template rendered for every prompt; empty means
	// the working directory followed by ">".
	Format string `yaml:"format"`
	// Color is "auto", "none", an ANSI colour number or "#rrggbb".
	Color string `yaml:"color"`
	Bold  bool   `yaml:"bold"`
}

// EchoEnabled reports the configured echo state, which defaults to on.
func (c *Config) EchoEnabled() bool {
	return c.Echo == nil || *c.Echo
}

// Dir returns the directory holding ecmd's config and plugins.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return filepath.Join(".", ".ecmd")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "ecmd")
}

// Path returns the config file location: $ECMD_CONFIG when set, otherwise
// config.yaml under Dir.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config from Path.
// If the file does not exist, it returns the defaults with no error.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from the given path.
// If the file does not exist, it returns the defaults with no error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the config used when no file exists.
func Default() *Config {
	return &Config{
		PluginPaths: []string{filepath.Join(Dir(), "plugins")},
		Prompt:      PromptConfig{Color: "auto"},
	}
}

var (
	driveRe = regexp.MustCompile(`^[a-zA-Z]:?$`)
	hexRe   = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// Validate checks the fields a user can get wrong. It is run after loading
// and again after overrides are applied.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Dialect) {
	case "", "auto", "cmd", "posix", "sh":
	default:
		return fmt.Errorf("dialect: unknown dialect %q (want cmd or posix)", c.Dialect)
	}
	for d := range c.DrivePaths {
		if !driveRe.MatchString(d) {
			return fmt.Errorf("drive_paths: invalid drive %q", d)
		}
	}
	if err := validateColor(c.Prompt.Color); err != nil {
		return fmt.Errorf("prompt.color: %w", err)
	}
	if c.Prompt.Format != "" {
		if _, err := tmpl.Parse(c.Prompt.Format); err != nil {
			return fmt.Errorf("prompt.format: %w", err)
		}
	}
	return nil
}

func validateColor(color string) error {
	switch strings.ToLower(color) {
	case "", "auto", "none":
		return nil
	}
	if hexRe.MatchString(color) {
		return nil
	}
	n, err := strconv.Atoi(color)
	if err != nil || n < 0 || n > 255 {
		return fmt.Errorf("invalid colour %q", color)
	}
	return nil
}
