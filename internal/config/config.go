package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"ovpngen/internal/domain"
)

// FileName is the config file looked up in the working directory
const FileName = "ovpngen.toml"

// Config represents the application configuration
type Config struct {
	Version int                     `toml:"version"`
	Output  OutputSettings          `toml:"output"`
	Values  ValuesSettings          `toml:"values"`
	Log     LogSettings             `toml:"log"`
	Seed    map[string]domain.Value `toml:"seed,omitempty"` // overrides for the initial values
}

// OutputSettings controls where and how artifacts are generated
type OutputSettings struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// ValuesSettings controls the values-file surface
type ValuesSettings struct {
	File string `toml:"file"` // empty disables the surface
}

// LogSettings controls log output
type LogSettings struct {
	File string `toml:"file"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	filePath string
}

// NewConfigService creates a config service backed by the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return &configService{
		filePath: filepath.Join(configDir, "ovpngen", "config.toml"),
	}
}

// NewConfigServiceAt creates a config service whose Load and Save use path
func NewConfigServiceAt(path string) ConfigService {
	return &configService{filePath: path}
}

// Load loads the configuration, falling back to defaults when the file doesn't exist
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Missing settings keep their defaults.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	for k, v := range cfg.Seed {
		cfg.Seed[k] = domain.Normalize(v)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Resolve loads the config at path. With an empty path it tries FileName in the
// working directory and falls back to defaults when that doesn't exist.
func Resolve(svc ConfigService, path string) (*Config, error) {
	if path != "" {
		return svc.LoadFromPath(path)
	}
	cfg, err := svc.LoadFromPath(FileName)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Output: OutputSettings{
			Dir:    "out",
			Format: "toml",
		},
		Log: LogSettings{
			File: "ovpngen.log",
		},
	}
}

// Seeds returns the initial population: defaults in their usual order with
// overrides applied, then any extra keys sorted by name.
func (c *Config) Seeds() []domain.Seed {
	seeds := domain.DefaultSeeds()
	used := make(map[string]bool, len(c.Seed))
	for i, s := range seeds {
		if v, ok := c.Seed[s.Key]; ok {
			seeds[i].Value = domain.Normalize(v)
			used[s.Key] = true
		}
	}

	var extra []string
	for k := range c.Seed {
		if !used[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		seeds = append(seeds, domain.Seed{Key: k, Value: domain.Normalize(c.Seed[k])})
	}
	return seeds
}
