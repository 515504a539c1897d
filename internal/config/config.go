package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"salespulse/internal/dataprocessing"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
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
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// UploadConfig controls how uploaded exports are accepted and stored
type UploadConfig struct {
	MaxBytes          int64    `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	TempDir           string   `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS"`
}

// IngestConfig describes the layout of a sales export
type IngestConfig struct {
	SkipRows            int      `yaml:"skip_rows" envconfig:"SKIP_ROWS"`
	DateColumn          string   `yaml:"date_column" envconfig:"DATE_COLUMN"`
	TimeColumn          string   `yaml:"time_column" envconfig:"TIME_COLUMN"`
	AmountColumn        string   `yaml:"amount_column" envconfig:"AMOUNT_COLUMN"`
	ProfileColumn       string   `yaml:"profile_column" envconfig:"PROFILE_COLUMN"`
	TicketColumn        string   `yaml:"ticket_column" envconfig:"TICKET_COLUMN"`
	RequireTicketColumn bool     `yaml:"require_ticket_column" envconfig:"REQUIRE_TICKET_COLUMN"`
	DateLayouts         []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
	TimeLayouts         []string `yaml:"time_layouts" envconfig:"TIME_LAYOUTS"`
	Timezone            string   `yaml:"timezone" envconfig:"TIMEZONE"`
}

// ReportConfig contains aggregation policy
type ReportConfig struct {
	// WeekNumbering is "monday" or "iso"
	WeekNumbering string `yaml:"week_numbering" envconfig:"WEEK_NUMBERING"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricsExporter string  `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, then the YAML file if one
// is found, then SALES_* environment variables. Later sources win.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys missing from the file
// leave cfg untouched
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration and normalizes a few fields in place
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q (want console, file or both)", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}

	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed upload extension must be specified")
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}

	if c.Ingest.SkipRows < 0 {
		return fmt.Errorf("ingest skip rows must not be negative: %d", c.Ingest.SkipRows)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if _, err := dataprocessing.ParseWeekNumbering(c.Report.WeekNumbering); err != nil {
		return err
	}

	switch c.Telemetry.TraceExporter {
	case TraceExporterStdout, TraceExporterNone:
	default:
		return fmt.Errorf("invalid trace exporter %q", c.Telemetry.TraceExporter)
	}

	switch c.Telemetry.MetricsExporter {
	case MetricsExporterPrometheus, MetricsExporterNone:
	default:
		return fmt.Errorf("invalid metrics exporter %q", c.Telemetry.MetricsExporter)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]: %v", c.Telemetry.SampleRatio)
	}

	return nil
}

// Location resolves the ingest timezone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Ingest.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest timezone %q: %w", c.Ingest.Timezone, err)
	}
	return loc, nil
}

// ParseOptions converts the ingest section into parser options
func (c *Config) ParseOptions() (dataprocessing.ParseOptions, error) {
	loc, err := c.Location()
	if err != nil {
		return dataprocessing.ParseOptions{}, err
	}

	return dataprocessing.ParseOptions{
		SkipRows:            c.Ingest.SkipRows,
		DateColumn:          c.Ingest.DateColumn,
		TimeColumn:          c.Ingest.TimeColumn,
		AmountColumn:        c.Ingest.AmountColumn,
		ProfileColumn:       c.Ingest.ProfileColumn,
		TicketColumn:        c.Ingest.TicketColumn,
		RequireTicketColumn: c.Ingest.RequireTicketColumn,
		DateLayouts:         c.Ingest.DateLayouts,
		TimeLayouts:         c.Ingest.TimeLayouts,
		Location:            loc,
	}, nil
}

// WeekNumbering returns the configured weekly bucketing policy
func (c *Config) WeekNumbering() (dataprocessing.WeekNumbering, error) {
	return dataprocessing.ParseWeekNumbering(c.Report.WeekNumbering)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
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
	parse := dataprocessing.DefaultParseOptions()

	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultRequestTimeout + 15*time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Upload: UploadConfig{
			MaxBytes:          DefaultMaxUploadBytes,
			TempDir:           filepath.Join(os.TempDir(), DefaultScratchDirName),
			AllowedExtensions: []string{".csv", ".xlsx"},
		},
		Ingest: IngestConfig{
			SkipRows:            parse.SkipRows,
			DateColumn:          parse.DateColumn,
			TimeColumn:          parse.TimeColumn,
			AmountColumn:        parse.AmountColumn,
			ProfileColumn:       parse.ProfileColumn,
			TicketColumn:        parse.TicketColumn,
			RequireTicketColumn: parse.RequireTicketColumn,
			DateLayouts:         parse.DateLayouts,
			TimeLayouts:         parse.TimeLayouts,
		},
		Report: ReportConfig{
			WeekNumbering: string(dataprocessing.WeekMonday),
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "salespulse",
			TraceExporter:   TraceExporterNone,
			MetricsExporter: MetricsExporterPrometheus,
			SampleRatio:     1.0,
		},
	}
}
