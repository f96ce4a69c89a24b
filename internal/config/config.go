// Package config provides configuration management for KisanDhan
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Inference InferenceConfig `mapstructure:"inference"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
}

// InferenceConfig configures the generative gateway client
type InferenceConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SpeechConfig configures the websocket bridge to the platform speech host
type SpeechConfig struct {
	BridgeURL        string        `mapstructure:"bridge_url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
}

// SessionConfig configures the voice session
type SessionConfig struct {
	DefaultLanguage   string        `mapstructure:"default_language"`
	AudioEnabled      bool          `mapstructure:"audio_enabled"`
	ProcessingTimeout time.Duration `mapstructure:"processing_timeout"`
}

// LogConfig configures logging
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	MaxHistory int    `mapstructure:"max_history"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Inference: InferenceConfig{
			ServerURL: "http://localhost:8080",
			Timeout:   30 * time.Second,
		},
		Speech: SpeechConfig{
			BridgeURL:        "ws://localhost:8765/speech",
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
		},
		Session: SessionConfig{
			DefaultLanguage:   "hi",
			AudioEnabled:      true,
			ProcessingTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Dir:        filepath.Join(home, ".kisandhan", "logs"),
			Level:      "info",
			Console:    true,
			MaxHistory: 500,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := Dir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("KISANDHAN")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("inference", cfg.Inference)
	viper.Set("speech", cfg.Speech)
	viper.Set("session", cfg.Session)
	viper.Set("log", cfg.Log)

	configPath := filepath.Join(configDir, "config.yaml")
	return viper.WriteConfigAs(configPath)
}

// Dir returns the configuration directory path
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".kisandhan"), nil
}
