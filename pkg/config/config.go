package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

const (
	DefaultRefreshInterval = 30 * time.Minute
	DefaultPageSize        = 10
	DefaultTopCategories   = 10
	DefaultSnapshotKeep    = 10
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
)

type Config struct {
	// SourceURL is the published sheet CSV the directory is built from.
	SourceURL string `toml:"source_url"`
	// SourceFile is a local CSV used instead of SourceURL when set.
	SourceFile      string    `toml:"source_file"`
	SnapshotPath    string    `toml:"snapshot_path"`
	SnapshotKeep    int       `toml:"snapshot_keep"`
	RefreshInterval Duration  `toml:"refresh_interval"`
	PageSize        int       `toml:"page_size"`
	TopCategories   int       `toml:"top_categories"`
	Web             WebConfig `toml:"web"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	snapshotPath, err := GetDefaultSnapshotPath()
	if err != nil {
		return nil, fmt.Errorf("getting default snapshot path: %w", err)
	}
	return &Config{
		SnapshotPath:    snapshotPath,
		SnapshotKeep:    DefaultSnapshotKeep,
		RefreshInterval: Duration{DefaultRefreshInterval},
		PageSize:        DefaultPageSize,
		TopCategories:   DefaultTopCategories,
		Web: WebConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
	}, nil
}

func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() error {
	if c.SnapshotPath == "" {
		snapshotPath, err := GetDefaultSnapshotPath()
		if err != nil {
			return fmt.Errorf("getting default snapshot path: %w", err)
		}
		c.SnapshotPath = snapshotPath
	}
	if c.SnapshotKeep <= 0 {
		c.SnapshotKeep = DefaultSnapshotKeep
	}
	if c.RefreshInterval.Duration == 0 {
		c.RefreshInterval = Duration{DefaultRefreshInterval}
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.TopCategories <= 0 {
		c.TopCategories = DefaultTopCategories
	}
	if c.Web.Host == "" {
		c.Web.Host = DefaultHost
	}
	if c.Web.Port == 0 {
		c.Web.Port = DefaultPort
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.RefreshInterval.Duration < 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port out of range: %d", c.Web.Port)
	}
	if c.SourceURL != "" && !strings.HasPrefix(c.SourceURL, "http://") && !strings.HasPrefix(c.SourceURL, "https://") {
		return fmt.Errorf("source_url must be an http(s) URL: %q", c.SourceURL)
	}
	return nil
}

// HasSource reports whether a data source is configured.
func (c *Config) HasSource() bool {
	return c.SourceURL != "" || c.SourceFile != ""
}

// Addr is the web listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

func (c *Config) SaveConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	snapshotPath := c.SnapshotPath
	if snapshotPath == "" {
		var err error
		snapshotPath, err = GetDefaultSnapshotPath()
		if err != nil {
			return "", fmt.Errorf("getting default snapshot path: %w", err)
		}
	}

	// Replace the placeholder snapshot_path with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/carefinder/snapshots.db", snapshotPath, 1)
	if c.SourceURL != "" {
		template = strings.Replace(template, `source_url = ""`, fmt.Sprintf("source_url = %q", c.SourceURL), 1)
	}
	if c.SourceFile != "" {
		template = strings.Replace(template, `source_file = ""`, fmt.Sprintf("source_file = %q", c.SourceFile), 1)
	}
	return template, nil
}

// GetDefaultStorageDir returns the default storage directory for snapshots
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	storageDir := filepath.Join(dataDir, "carefinder")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", storageDir, err)
	}

	return storageDir, nil
}

// GetDefaultSnapshotPath returns the default snapshot database path
func GetDefaultSnapshotPath() (string, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(storageDir, "snapshots.db"), nil
}

// GetConfigDir returns the configuration directory for carefinder
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	appConfigDir := filepath.Join(configDir, "carefinder")

	// Create the directory if it doesn't exist
	if err := os.MkdirAll(appConfigDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", appConfigDir, err)
	}

	return appConfigDir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
