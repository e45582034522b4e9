package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "litmus-chat"
	// ConfigFile is the config file name
	ConfigFile = "config.toml"
	// DefaultEnvFile is read from the working directory when present.
	DefaultEnvFile = ".env"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs      FileSystem
	path    string
	envFile string
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithPath reads the config from an explicit path. Unlike the default
// dotfile, an explicit path that does not exist is an error.
func WithPath(path string) LoaderOption {
	return func(l *Loader) { l.path = path }
}

// WithEnvFile changes the .env file location. An empty path skips it.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) { l.envFile = path }
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader(opts ...LoaderOption) *Loader {
	return NewLoaderWithFS(ConfigFileReader{}, opts...)
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fsys FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{fs: fsys, envFile: DefaultEnvFile}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the configuration in layers: defaults, then the TOML dotfile
// (~/.config/litmus-chat/config.toml or the explicit path), then the .env
// file, then the process environment. The merged result is validated.
//
// NOTE: TOML keys are decoded directly over the default configuration, so
// explicit zero values in the file override defaults while missing keys
// leave them untouched.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.loadFile(cfg); err != nil {
		return nil, err
	}

	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", l.envFile, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	configPath := l.path
	explicit := configPath != ""
	if !explicit {
		homeDir, err := l.fs.UserHomeDir()
		if err != nil {
			return nil // Use defaults if can't get home dir
		}
		configPath = filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)
	}

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}
	return nil
}

// Load is a convenience function using the default loader
func Load(opts ...LoaderOption) (*Config, error) {
	return NewLoader(opts...).Load()
}
