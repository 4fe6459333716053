package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Backend    BackendConfig    `yaml:"backend"`
	Console    ConsoleConfig    `yaml:"console"`
	Redis      RedisConfig      `yaml:"redis"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type ConsoleConfig struct {
	Port      int              `yaml:"port"`
	RateLimit ConsoleRateLimit `yaml:"rate_limit"`
}

type ConsoleRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type RefreshConfig struct {
	PollSeconds int    `yaml:"poll_seconds"`
	PushEnabled bool   `yaml:"push_enabled"`
	PushChannel string `yaml:"push_channel"`
}

func (c RefreshConfig) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// Load reads the yaml config once at process start; components receive the
// resulting struct and never read ambient environment state afterwards.
// Environment variables are expanded inside the file, and a .env file is
// honored when present.
func Load(configPath string) (*Config, error) {
	// .env опционален, в отличие от самого конфига
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend base_url is required")
	}
	if c.Refresh.PushEnabled && !c.Redis.Enabled {
		return errors.New("refresh push channel requires redis to be enabled")
	}
	if c.Refresh.PushEnabled && strings.TrimSpace(c.Refresh.PushChannel) == "" {
		return errors.New("refresh push channel name is required when push is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "tabledesk"
	}
	if c.Backend.TimeoutSeconds == 0 {
		c.Backend.TimeoutSeconds = 10
	}
	if c.Console.Port == 0 {
		c.Console.Port = 8080
	}
	if c.Console.RateLimit.Burst == 0 {
		c.Console.RateLimit.Burst = 5
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Refresh.PollSeconds == 0 {
		c.Refresh.PollSeconds = 30
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
