package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClusterConfig holds partitioning and replication configuration
type ClusterConfig struct {
	VirtualNodes      int      `yaml:"virtual_nodes"`
	ReplicationFactor int      `yaml:"replication_factor"`
	SeedNodes         []string `yaml:"seed_nodes"`
}

// LimitsConfig holds request size limits
type LimitsConfig struct {
	MaxKeySize   int `yaml:"max_key_size"`
	MaxValueSize int `yaml:"max_value_size"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config represents the complete configuration for the cluster service
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cluster ClusterConfig `yaml:"cluster"`
	Limits  LimitsConfig  `yaml:"limits"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoadConfig loads configuration from a file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for unspecified configuration
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 7400
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Cluster.VirtualNodes == 0 {
		cfg.Cluster.VirtualNodes = 64
	}
	if cfg.Cluster.ReplicationFactor == 0 {
		cfg.Cluster.ReplicationFactor = 2
	}
	if cfg.Limits.MaxKeySize == 0 {
		cfg.Limits.MaxKeySize = 1024
	}
	if cfg.Limits.MaxValueSize == 0 {
		cfg.Limits.MaxValueSize = 1 * 1024 * 1024
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 7401
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Cluster.VirtualNodes < 1 {
		return fmt.Errorf("virtual_nodes must be at least 1, got %d", c.Cluster.VirtualNodes)
	}
	if c.Cluster.ReplicationFactor < 1 {
		return fmt.Errorf("replication_factor must be at least 1, got %d", c.Cluster.ReplicationFactor)
	}
	if c.Limits.MaxKeySize < 1 {
		return fmt.Errorf("max_key_size must be at least 1, got %d", c.Limits.MaxKeySize)
	}
	if c.Limits.MaxValueSize < 1 {
		return fmt.Errorf("max_value_size must be at least 1, got %d", c.Limits.MaxValueSize)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Server.Port {
		return fmt.Errorf("metrics port must differ from server port")
	}

	seen := make(map[string]bool, len(c.Cluster.SeedNodes))
	for _, nodeID := range c.Cluster.SeedNodes {
		if nodeID == "" {
			return fmt.Errorf("seed node IDs must not be empty")
		}
		if seen[nodeID] {
			return fmt.Errorf("duplicate seed node ID %q", nodeID)
		}
		seen[nodeID] = true
	}

	return nil
}
