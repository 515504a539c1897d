// Package http implements the HTTP handlers of the SalesPulse service.
// Handlers are thin: they decode the request, delegate to a service and
// render the result or hand the error to the shared RFC 7807 error handler.
//
// # Endpoints
//
//	POST /api/reports/upload   multipart upload, returns the four views
//	POST /upload               legacy alias of the upload endpoint
//	GET  /api/health           liveness summary
//	GET  /api/health/ready     readiness (scratch storage writable)
//	GET  /api/health/live      liveness with runtime details
//	GET  /api/version          build information
//	GET  /metrics              Prometheus exposition
//
// # Upload form
//
// The multipart body carries the export in the "file" field. Optional filter
// fields are start_date, end_date, min_price, max_price and repeated
// profiles[] (a plain "profiles" field is accepted too). Empty values mean
// the filter is not applied.
package http
