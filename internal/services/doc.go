// Package services implements the business logic layer of SalesPulse.
// It sits between the HTTP handlers (and the CLI) and the data processing
// pipeline so that request handling stays thin and the pipeline stays free
// of transport concerns.
//
// # Available Services
//
//	- ReportService: runs one upload through scratch storage, the parser,
//	  filter validation, aggregation and normalization
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return the typed errors from internal/errors unchanged so that
// the error handler can map them onto RFC 7807 responses:
//
//	- upload errors (missing part, empty name, unsupported type) -> 400
//	- oversize uploads -> 413
//	- ingestion and aggregation errors -> 422
//	- filter validation errors -> 400 with the offending field
//
// A failed run never returns a partial report.
//
// # Testing
//
// Services are tested against real temp directories and generated export
// fixtures; handlers mock the service through ReportServiceInterface.
package services
