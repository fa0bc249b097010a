package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmcdole/trackctl/internal/validate"
)

const appName = "trackctl"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Player  PlayerConfig  `mapstructure:"player"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds catalog server configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url" json:"url" validate:"omitempty,http_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" validate:"gte=0"`
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	Dir       string        `mapstructure:"dir"`
	StaleTime time.Duration `mapstructure:"stale_time" json:"staleTime" validate:"gte=0"`
	Persist   bool          `mapstructure:"persist"` // keep query results on disk between runs
}

// PlayerConfig holds audio player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"` // empty to auto-detect
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	PageSize int           `mapstructure:"page_size" json:"pageSize" validate:"gte=1,lte=100"`
	Debounce time.Duration `mapstructure:"debounce" json:"debounce" validate:"gte=0"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level" json:"level" validate:"omitempty,oneof=DEBUG INFO WARN WARNING ERROR debug info warn warning error"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"maxSizeMb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" json:"maxBackups" validate:"gte=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "",
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			Dir:       defaultCachePath(),
			StaleTime: 30 * time.Second,
			Persist:   true,
		},
		Player: PlayerConfig{
			Command: "",
			Args:    []string{},
		},
		UI: UIConfig{
			PageSize: 10,
			Debounce: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName, appName+".log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, appName+".log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName, "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "cache")
	}
}

// newViper returns a viper instance seeded with defaults so that every
// key can be overridden from the environment.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TRACKCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("server.url", def.Server.URL)
	v.SetDefault("server.timeout", def.Server.Timeout)
	v.SetDefault("cache.dir", def.Cache.Dir)
	v.SetDefault("cache.stale_time", def.Cache.StaleTime)
	v.SetDefault("cache.persist", def.Cache.Persist)
	v.SetDefault("player.command", def.Player.Command)
	v.SetDefault("player.args", def.Player.Args)
	v.SetDefault("ui.page_size", def.UI.PageSize)
	v.SetDefault("ui.debounce", def.UI.Debounce)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.max_size_mb", def.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.Logging.MaxBackups)
	return v
}

// LoadConfig loads configuration from file and environment. A .env file
// in the working directory is loaded first; it never overrides variables
// that are already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := newViper()
	v.AddConfigPath(defaultConfigPath())
	v.AddConfigPath(".")

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Server.URL = strings.TrimRight(strings.TrimSpace(cfg.Server.URL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if err := validate.Struct("config server", &c.Server); err != nil {
		return err
	}
	if err := validate.Struct("config cache", &c.Cache); err != nil {
		return err
	}
	if err := validate.Struct("config ui", &c.UI); err != nil {
		return err
	}
	return validate.Struct("config logging", &c.Logging)
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("cache.dir", cfg.Cache.Dir)
	v.Set("cache.stale_time", cfg.Cache.StaleTime.String())
	v.Set("cache.persist", cfg.Cache.Persist)

	v.Set("player.command", cfg.Player.Command)
	v.Set("player.args", cfg.Player.Args)

	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.debounce", cfg.UI.Debounce.String())

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.Set("logging.max_backups", cfg.Logging.MaxBackups)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigured returns true if the server URL is set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != ""
}

// CacheDir returns the directory for persisted query results, or "" when
// persistence is disabled.
func (c *Config) CacheDir() string {
	if !c.Cache.Persist {
		return ""
	}
	if c.Cache.Dir == "" {
		return defaultCachePath()
	}
	return c.Cache.Dir
}

// ClearCache removes all cached data in dir, or the default cache
// directory when dir is empty.
func ClearCache(dir string) error {
	if dir == "" {
		dir = defaultCachePath()
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// GetCachePath returns the default cache directory path
func GetCachePath() string {
	return defaultCachePath()
}
