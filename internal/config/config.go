package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Kite   KiteConfig   `mapstructure:"kite"`
	Python PythonConfig `mapstructure:"python"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds auth server and launcher configuration.
type ServerConfig struct {
	Host    string `mapstructure:"host"`     // Bind address for the auth server
	Port    int    `mapstructure:"port"`     // TCP port the auth server listens on
	LogFile string `mapstructure:"log_file"` // Child output sink, relative to the base directory
	Mode    string `mapstructure:"mode"`     // "development" or "production"
}

// KiteConfig holds Kite Connect API credentials and token storage.
type KiteConfig struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	TokenFile string `mapstructure:"token_file"` // Access token JSON, relative to the base directory
}

// PythonConfig holds the optional sidecar environment sync settings.
// When VenvPath is empty the launcher skips the sync step entirely.
type PythonConfig struct {
	Manager     string `mapstructure:"manager"`      // "pip" or "uv"
	VenvPath    string `mapstructure:"venv_path"`    // Virtual environment directory
	ProjectDir  string `mapstructure:"project_dir"`  // Local package installed editable ("" = none)
	Requirement string `mapstructure:"requirement"`  // requirements.txt path ("" = none)
	ManagerPath string `mapstructure:"manager_path"` // Custom pip/uv binary path (optional)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// Load reads configuration from an optional config.yaml in baseDir and
// KITEBRIDGE_-prefixed environment variables.
func Load(baseDir string) (*Config, error) {
	v := viper.New()

	// Every key needs a default so environment overrides survive Unmarshal.
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.log_file", "server.log")
	v.SetDefault("server.mode", "development")
	v.SetDefault("kite.api_key", "")
	v.SetDefault("kite.api_secret", "")
	v.SetDefault("kite.token_file", ".kite_tokens.json")
	v.SetDefault("python.manager", "pip")
	v.SetDefault("python.venv_path", "")
	v.SetDefault("python.project_dir", "")
	v.SetDefault("python.requirement", "")
	v.SetDefault("python.manager_path", "")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if baseDir != "" {
		v.AddConfigPath(baseDir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	v.SetEnvPrefix("KITEBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if baseDir != "" {
		cfg.resolvePaths(baseDir)
	}

	return &cfg, nil
}

// resolvePaths anchors relative file paths to the base directory so they
// resolve consistently regardless of the invocation directory.
func (c *Config) resolvePaths(baseDir string) {
	if c.Server.LogFile != "" && !filepath.IsAbs(c.Server.LogFile) {
		c.Server.LogFile = filepath.Join(baseDir, c.Server.LogFile)
	}
	if c.Kite.TokenFile != "" && !filepath.IsAbs(c.Kite.TokenFile) {
		c.Kite.TokenFile = filepath.Join(baseDir, c.Kite.TokenFile)
	}
}
