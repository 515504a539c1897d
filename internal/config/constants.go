package config

import (
	"time"

	"salespulse/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "SalesPulse"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable: SALES_SERVER_PORT etc.
	EnvPrefix = "SALES"

	// ConfigFileEnv points at an explicit YAML file, bypassing the search
	ConfigFileEnv = "SALES_CONFIG_FILE"

	// Upload limits
	DefaultMaxUploadBytes = 32 << 20 // 32 MiB
	DefaultScratchDirName = "salespulse"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Request Timeouts
	DefaultRequestTimeout = 60 * time.Second

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/app.log"

	// API Endpoints
	APIBasePath      = "/api"
	UploadEndpoint   = "/api/reports/upload"
	LegacyUploadPath = "/upload"
	HealthEndpoint   = "/api/health"
	MetricsEndpoint  = "/metrics"
)

// Telemetry exporter names
const (
	TraceExporterStdout       = "stdout"
	TraceExporterNone         = "none"
	MetricsExporterPrometheus = "prometheus"
	MetricsExporterNone       = "none"
)
