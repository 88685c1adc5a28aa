package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths. Relative paths resolve against BaseDir.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputFile  string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
	OutputFile string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// StorageConfig describes the remote blob store. An empty AccountURL disables
// uploads and makes the remote read handler answer with an error.
type StorageConfig struct {
	AccountURL string `yaml:"account_url" envconfig:"AZURE_STORAGE_ACCOUNT_URL" validate:"omitempty,url"`
	Container  string `yaml:"container" envconfig:"CONTAINER" validate:"required"`
	ObjectKey  string `yaml:"object_key" envconfig:"OBJECT_KEY"`
}

// PipelineConfig tunes the write path.
type PipelineConfig struct {
	RecentWindowDays int      `yaml:"recent_window_days" envconfig:"RECENT_WINDOW_DAYS" validate:"min=1"`
	Schedule         string   `yaml:"schedule" envconfig:"SCHEDULE"`
	DateLayouts      []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
	Sheet            string   `yaml:"sheet" envconfig:"SHEET"`
}

// TelemetryConfig selects trace and metric exporters.
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// EnvPrefix namespaces all environment variables (SALES_SERVER_PORT, ...).
const EnvPrefix = "SALES"

// FunctionsPortEnv is set by the serverless host when running as a custom handler.
const FunctionsPortEnv = "FUNCTIONS_CUSTOMHANDLER_PORT"

// Override adjusts a loaded configuration before derived values are filled in.
type Override func(*Config)

// Load builds the configuration from defaults, then the optional YAML file,
// then environment variables, then overrides. Later sources win.
func Load(overrides ...Override) (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if port := os.Getenv(FunctionsPortEnv); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", FunctionsPortEnv, err)
		}
		cfg.Server.Port = p
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate normalises and validates the configuration
func (c *Config) validate() error {
	// Always JSON
	c.Logging.Format = "json"
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	if c.Logging.Output == "" {
		c.Logging.Output = "console"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}

	if c.Storage.ObjectKey == "" {
		c.Storage.ObjectKey = filepath.Base(c.Paths.OutputFile)
	}
	c.Storage.AccountURL = strings.TrimSpace(c.Storage.AccountURL)

	if len(c.Pipeline.DateLayouts) == 0 {
		c.Pipeline.DateLayouts = DefaultDateLayouts()
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	return validator.New().Struct(c)
}

// RemoteEnabled reports whether a remote blob store address is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Storage.AccountURL != ""
}

// getConfigFilePath returns the path to the config file, or "" when none exists
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

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
		Paths: PathsConfig{
			BaseDir:    ".",
			InputFile:  DefaultInputFile,
			OutputFile: DefaultOutputFile,
			LogsDir:    DefaultLogsDir,
		},
		Storage: StorageConfig{
			Container: DefaultContainer,
		},
		Pipeline: PipelineConfig{
			RecentWindowDays: DefaultRecentWindowDays,
			Schedule:         DefaultSchedule,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
