package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds all configuration for the tracker server
type AppConfig struct {
	Server   ServerSettings   `yaml:"server"`
	Database DatabaseSettings `yaml:"database"`
	Chart    ChartSettings    `yaml:"chart"`
	Logging  LoggingConfig    `yaml:"logging"`
}

// ServerSettings contains HTTP server configuration
type ServerSettings struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseSettings contains storage configuration
type DatabaseSettings struct {
	Path string `yaml:"path"`
}

// ChartSettings contains timeline chart configuration
type ChartSettings struct {
	Height        int `yaml:"height"`
	MaxLanes      int `yaml:"max_lanes"`
	WindowMinutes int `yaml:"window_minutes"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadAppConfig loads configuration from a YAML file, applies defaults,
// overrides from the environment and validates the result
func LoadAppConfig(path string) (*AppConfig, error) {
	yamlData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(yamlData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	config.OverrideFromEnv()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// ApplyDefaults sets default values for any unset fields
func (ac *AppConfig) ApplyDefaults() {
	if ac.Server.Port == 0 {
		ac.Server.Port = 8080
	}
	if ac.Server.Host == "" {
		ac.Server.Host = "localhost"
	}
	if ac.Server.ReadTimeout == 0 {
		ac.Server.ReadTimeout = 60 * time.Second
	}
	if ac.Server.WriteTimeout == 0 {
		ac.Server.WriteTimeout = 10 * time.Second
	}
	if ac.Database.Path == "" {
		ac.Database.Path = "./data/fevertrack.db"
	}
	if ac.Chart.Height == 0 {
		ac.Chart.Height = 700
	}
	if ac.Chart.MaxLanes == 0 {
		ac.Chart.MaxLanes = 3
	}
	if ac.Chart.WindowMinutes == 0 {
		ac.Chart.WindowMinutes = 180
	}
	if ac.Logging.Level == "" {
		ac.Logging.Level = "info"
	}
	if ac.Logging.Format == "" {
		ac.Logging.Format = "json"
	}
}

// OverrideFromEnv overrides config from environment variables
func (ac *AppConfig) OverrideFromEnv() {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			ac.Server.Port = port
		}
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		ac.Server.Host = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		ac.Database.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		ac.Logging.Level = v
	}
}

// Validate checks if the configuration is valid
func (ac *AppConfig) Validate() error {
	if ac.Server.Port < 1 || ac.Server.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if ac.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if ac.Chart.Height < 100 {
		return fmt.Errorf("chart height must be at least 100")
	}
	if ac.Chart.MaxLanes < 1 {
		return fmt.Errorf("chart max lanes must be at least 1")
	}
	if ac.Chart.WindowMinutes < 1 {
		return fmt.Errorf("chart window minutes must be at least 1")
	}
	return nil
}

// String returns a string representation of the config
func (ac *AppConfig) String() string {
	return fmt.Sprintf("AppConfig{Server: %+v, Database: %+v, Chart: %+v, Logging: %+v}",
		ac.Server,
		ac.Database,
		ac.Chart,
		ac.Logging,
	)
}
