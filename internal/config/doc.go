// Package config provides configuration management for SalesPulse.
//
// # Configuration Sources
//
// Configuration is assembled from three layers, later layers winning:
//
//	1. Default values (Default)
//	2. A YAML file: $SALES_CONFIG_FILE, else config.yaml or configs/config.yaml
//	3. Environment variables with the SALES_ prefix
//
// Environment variable names follow the struct nesting:
//
//	SALES_SERVER_PORT=8080
//	SALES_UPLOAD_MAX_BYTES=33554432
//	SALES_INGEST_SKIP_ROWS=1
//	SALES_INGEST_TICKET_COLUMN=Username
//	SALES_REPORT_WEEK_NUMBERING=iso
//	SALES_TELEMETRY_TRACE_EXPORTER=stdout
//
// Slice fields take comma separated values (SALES_UPLOAD_ALLOWED_EXTENSIONS=.csv,.xlsx).
//
// # Validation
//
// Load runs Validate, which rejects invalid ports, non-positive timeouts,
// unknown week numbering policies, negative skip rows and unknown telemetry
// exporters.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts, err := cfg.ParseOptions()
package config
