package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/plugkit/pkg/observability"
	"github.com/platinummonkey/plugkit/pkg/plugins"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Contract is the interface isolated images are inspected against
	Contract string `yaml:"contract"`

	// Pipeline configuration
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Inspector cache configuration
	Inspector InspectorConfig `yaml:"inspector"`

	// Watch mode configuration
	Watch WatchConfig `yaml:"watch"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`
}

// PipelineConfig holds pipeline run settings
type PipelineConfig struct {
	Payload string        `yaml:"payload"`
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// InspectorConfig holds isolated inspection cache settings
type InspectorConfig struct {
	CacheSize int           `yaml:"cacheSize"`
	CacheTTL  time.Duration `yaml:"cacheTTL"`
	TempDir   string        `yaml:"tempDir"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string `yaml:"logLevel"`

	// Metrics and health, served when set
	MetricsAddr     string        `yaml:"metricsAddr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// OpenTelemetry
	OTelEnabled        bool   `yaml:"otelEnabled"`
	OTelEndpoint       string `yaml:"otelEndpoint"`
	OTelServiceName    string `yaml:"otelServiceName"`
	OTelServiceVersion string `yaml:"otelServiceVersion"`
	OTelInsecure       bool   `yaml:"otelInsecure"` // Use insecure gRPC connection
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Contract: plugins.ContractName,
		Pipeline: PipelineConfig{
			Payload: "hello from MAUI",
			Workers: 4,
		},
		Inspector: InspectorConfig{
			CacheSize: 64,
		},
		Watch: WatchConfig{
			Debounce: 200 * time.Millisecond,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			ShutdownTimeout:    10 * time.Second,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "plugkit",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when empty), then PLUGKIT_ environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides every setting that has its environment variable set
func (c *Config) applyEnv() {
	c.Contract = getEnv("PLUGKIT_CONTRACT", c.Contract)

	c.Pipeline.Payload = getEnv("PLUGKIT_PAYLOAD", c.Pipeline.Payload)
	c.Pipeline.Workers = getEnvInt("PLUGKIT_WORKERS", c.Pipeline.Workers)
	c.Pipeline.Timeout = getEnvDuration("PLUGKIT_TIMEOUT", c.Pipeline.Timeout)

	c.Inspector.CacheSize = getEnvInt("PLUGKIT_INSPECTOR_CACHE_SIZE", c.Inspector.CacheSize)
	c.Inspector.CacheTTL = getEnvDuration("PLUGKIT_INSPECTOR_CACHE_TTL", c.Inspector.CacheTTL)
	c.Inspector.TempDir = getEnv("PLUGKIT_TEMP_DIR", c.Inspector.TempDir)

	c.Watch.Debounce = getEnvDuration("PLUGKIT_WATCH_DEBOUNCE", c.Watch.Debounce)

	o := &c.Observability
	o.LogLevel = getEnv("PLUGKIT_LOG_LEVEL", o.LogLevel)
	o.MetricsAddr = getEnv("PLUGKIT_METRICS_ADDR", o.MetricsAddr)
	o.ShutdownTimeout = getEnvDuration("PLUGKIT_SHUTDOWN_TIMEOUT", o.ShutdownTimeout)
	o.OTelEnabled = getEnvBool("PLUGKIT_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("PLUGKIT_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("PLUGKIT_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("PLUGKIT_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("PLUGKIT_OTEL_INSECURE", o.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate contract
	i := strings.LastIndex(c.Contract, ".")
	if i <= 0 || i == len(c.Contract)-1 || strings.Contains(c.Contract[i+1:], "/") {
		return fmt.Errorf("invalid contract %q (must be import/path.Name)", c.Contract)
	}

	// Validate pipeline config
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1")
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("pipeline timeout must not be negative")
	}

	// Validate inspector config
	if c.Inspector.CacheSize < 1 {
		return fmt.Errorf("inspector cache size must be at least 1")
	}
	if c.Inspector.CacheTTL < 0 {
		return fmt.Errorf("inspector cache TTL must not be negative")
	}

	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch debounce must be positive")
	}

	// Validate observability config
	if !observability.ValidLevel(c.Observability.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be trace, debug, info, warn, error, fatal, or panic)", c.Observability.LogLevel)
	}
	if addr := c.Observability.MetricsAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid metrics address %q: %w", addr, err)
		}
	}
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// OTel returns the tracer settings for observability.InitOTel
func (c *Config) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
