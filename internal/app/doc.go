// Package app wires SalesPulse together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, an optional YAML file and SALES_* variables
//	2. Initialize logging and OpenTelemetry (tracing, Prometheus metrics)
//	3. Prepare the scratch root used for request-scoped upload storage
//	4. Build the parser, analyzer and ReportService
//	5. Set up middleware, handlers and the HTTP server
//
// # Routes
//
//	POST /api/reports/upload   multipart export upload, returns the report payload
//	POST /upload               legacy alias of the above
//	GET  /api/health           liveness summary
//	GET  /api/health/ready     readiness (scratch storage writable)
//	GET  /api/health/live      liveness
//	GET  /api/version          build information
//	GET  /metrics              Prometheus exposition
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// Server.ShutdownTimeout and flushes telemetry. Errors are returned to the
// caller; the package never calls os.Exit.
package app
