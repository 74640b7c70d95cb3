package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Sessions  SessionConfig   `yaml:"sessions" envconfig:"SESSIONS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig limits upload requests per client IP
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PipelineConfig configures how uploaded shipment sheets are read and normalized.
type PipelineConfig struct {
	DateColumn           string            `yaml:"date_column" envconfig:"DATE_COLUMN"`
	VolumeColumn         string            `yaml:"volume_column" envconfig:"VOLUME_COLUMN"`
	ProductColumn        string            `yaml:"product_column" envconfig:"PRODUCT_COLUMN"`
	CarrierColumn        string            `yaml:"carrier_column" envconfig:"CARRIER_COLUMN"`
	DestinationColumn    string            `yaml:"destination_column" envconfig:"DESTINATION_COLUMN"`
	RegulationColumns    []string          `yaml:"regulation_columns" envconfig:"REGULATION_COLUMNS"`
	DateLayout           string            `yaml:"date_layout" envconfig:"DATE_LAYOUT"`
	LooseCarrierMatching bool              `yaml:"loose_carrier_matching" envconfig:"LOOSE_CARRIER_MATCHING"`
	CarrierAliases       map[string]string `yaml:"carrier_aliases" envconfig:"CARRIER_ALIASES"`
}

// SessionConfig controls the lifetime of uploaded batches kept in memory.
type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl" envconfig:"TTL"`
	JanitorInterval time.Duration `yaml:"janitor_interval" envconfig:"JANITOR_INTERVAL"`
	MaxSessions     int           `yaml:"max_sessions" envconfig:"MAX_SESSIONS"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, the config file and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path or a missing
// file leaves the defaults in place.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Only variables that are set override; there are no default tags.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	// The alias table is replaced as a whole when the file names one.
	var probe struct {
		Pipeline struct {
			CarrierAliases map[string]string `yaml:"carrier_aliases"`
		} `yaml:"pipeline"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Pipeline.CarrierAliases != nil {
		cfg.Pipeline.CarrierAliases = nil
	}

	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	return c.Pipeline.Validate()
}

// Validate checks that every column is named and that no two columns share a name.
func (p PipelineConfig) Validate() error {
	seen := make(map[string]string)
	check := func(role, name string) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%s column must be set", role)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("%s column %q is already used as %s column", role, name, other)
		}
		seen[name] = role
		return nil
	}

	required := []struct{ role, name string }{
		{"date", p.DateColumn},
		{"volume", p.VolumeColumn},
		{"product", p.ProductColumn},
		{"carrier", p.CarrierColumn},
		{"destination", p.DestinationColumn},
	}
	for _, col := range required {
		if err := check(col.role, col.name); err != nil {
			return err
		}
	}
	for _, name := range p.RegulationColumns {
		if err := check("regulation", name); err != nil {
			return err
		}
	}

	if p.DateLayout == "" {
		return fmt.Errorf("date layout must be set")
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultUploadRateLimit,
				Burst:   DefaultUploadBurst,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Pipeline: DefaultPipelineConfig(),
		Sessions: SessionConfig{
			TTL:             DefaultSessionTTL,
			JanitorInterval: DefaultJanitorInterval,
			MaxSessions:     DefaultMaxSessions,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1,
		},
	}
}

// DefaultPipelineConfig returns the column layout of the standard shipment export.
func DefaultPipelineConfig() PipelineConfig {
	regs := make([]string, len(DefaultRegulationColumns))
	copy(regs, DefaultRegulationColumns)
	return PipelineConfig{
		DateColumn:           DefaultDateColumn,
		VolumeColumn:         DefaultVolumeColumn,
		ProductColumn:        DefaultProductColumn,
		CarrierColumn:        DefaultCarrierColumn,
		DestinationColumn:    DefaultDestinationColumn,
		RegulationColumns:    regs,
		DateLayout:           DefaultDateLayout,
		LooseCarrierMatching: true,
		CarrierAliases:       DefaultCarrierAliases(),
	}
}
