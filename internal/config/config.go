// Package config provides configuration management for the nucleator preview
// tool using Viper for flexible loading from files, environment variables,
// and command-line flags.
//
// Configuration is read from .nucleator.yml with NUCLEATOR_ environment
// variable overrides. It covers the preview server, fragment discovery,
// file watching and logging.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Preview   PreviewConfig   `yaml:"preview"`
	Fragments FragmentsConfig `yaml:"fragments"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	Open           bool     `yaml:"open"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type PreviewConfig struct {
	Title    string `yaml:"title"`
	MockData string `yaml:"mock_data"`
	Style    string `yaml:"style"`
}

type FragmentsConfig struct {
	Dir             string   `yaml:"dir"`
	Extensions      []string `yaml:"extensions"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SetDefaults registers default values on a viper instance. Called before
// reading the config file so flags and env overrides layer on top.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8120)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.open", false)
	v.SetDefault("preview.title", "Nucleus Preview")
	v.SetDefault("fragments.dir", "./fragments")
	v.SetDefault("fragments.extensions", []string{".ncl", ".nucleus"})
	v.SetDefault("fragments.exclude_patterns", []string{"*.bak", ".*"})
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce_ms", 100)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load builds a Config from an initialized viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Viper's Unmarshal uses mapstructure tags, not yaml tags, so nested
	// values need to be pulled explicitly.
	config.Server.Port = v.GetInt("server.port")
	config.Server.Host = v.GetString("server.host")
	config.Server.Open = v.GetBool("server.open")
	config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	config.Preview.Title = v.GetString("preview.title")
	config.Preview.MockData = v.GetString("preview.mock_data")
	config.Preview.Style = v.GetString("preview.style")
	config.Fragments.Dir = v.GetString("fragments.dir")
	config.Fragments.Extensions = v.GetStringSlice("fragments.extensions")
	config.Fragments.ExcludePatterns = v.GetStringSlice("fragments.exclude_patterns")
	config.Watch.Enabled = v.GetBool("watch.enabled")
	config.Watch.DebounceMs = v.GetInt("watch.debounce_ms")
	config.Logging.Level = v.GetString("logging.level")
	config.Logging.Format = v.GetString("logging.format")

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// NewViper creates a viper instance wired for .nucleator.yml discovery and
// NUCLEATOR_ environment overrides. cfgFile, when non-empty, pins the file.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".nucleator")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("NUCLEATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateFragmentsConfig(&config.Fragments); err != nil {
		return fmt.Errorf("fragments config: %w", err)
	}
	if config.Watch.DebounceMs < 0 {
		return fmt.Errorf("watch config: debounce_ms must not be negative")
	}
	switch config.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging config: format %q is not text or json", config.Logging.Format)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Port 0 stays valid so tests can bind system-assigned ports.
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

// validateFragmentsConfig validates fragment discovery settings
func validateFragmentsConfig(config *FragmentsConfig) error {
	if strings.Contains(config.Dir, "..") {
		return fmt.Errorf("fragments dir must not contain path traversal: %s", config.Dir)
	}
	for _, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}
