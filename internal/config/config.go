package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file name.
const FileName = "spendwise.yaml"

// Config represents the top-level spendwise.yaml configuration.
type Config struct {
	User   UserConfig   `yaml:"user"`
	Store  StoreConfig  `yaml:"store"`
	Import ImportConfig `yaml:"import"`
	Log    LogConfig    `yaml:"log"`
}

// UserConfig identifies the acting user for CLI commands.
type UserConfig struct {
	ID   uuid.UUID `yaml:"id"`
	Name string    `yaml:"name"`
}

// StoreConfig locates the bolt database.
type StoreConfig struct {
	Path string `yaml:"path"` // relative paths resolve against the config dir
}

// ImportConfig controls the CSV inbox.
type ImportConfig struct {
	InboxDir     string `yaml:"inbox_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	LogDir       string `yaml:"log_dir"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads a spendwise.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.User.ID == uuid.Nil {
		return nil, fmt.Errorf("config %s: user.id is required", path)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for a new user with a fresh id.
func Default(userName string) *Config {
	return &Config{
		User: UserConfig{
			ID:   uuid.New(),
			Name: userName,
		},
		Store: StoreConfig{
			Path: "spendwise.db",
		},
		Import: ImportConfig{
			InboxDir:     "import",
			ProcessedDir: "import/processed",
			LogDir:       "logs",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
