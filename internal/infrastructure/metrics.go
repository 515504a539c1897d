package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Report pipeline stages
const (
	StageParse     = "parse"
	StageFilter    = "filter"
	StageAggregate = "aggregate"
	StageNormalize = "normalize"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Report metrics
	ReportUploadsTotal     metric.Int64Counter
	ReportRowsIngested     metric.Int64Counter
	ReportRowsFiltered     metric.Int64Counter
	ReportPipelineDuration metric.Float64Histogram
	ReportStageDuration    metric.Float64Histogram
	ReportFailuresTotal    metric.Int64Counter
	ReportActivePipelines  metric.Int64UpDownCounter
	ReportUploadBytes      metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	// HTTP metrics
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	// Report metrics
	reportUploadsTotal, err := meter.Int64Counter(
		"report_uploads_total",
		metric.WithDescription("Total number of report requests by outcome"),
	)
	if err != nil {
		return nil, err
	}

	reportRowsIngested, err := meter.Int64Counter(
		"report_rows_ingested_total",
		metric.WithDescription("Total number of transaction rows parsed from exports"),
	)
	if err != nil {
		return nil, err
	}

	reportRowsFiltered, err := meter.Int64Counter(
		"report_rows_filtered_total",
		metric.WithDescription("Total number of transaction rows that survived filtering"),
	)
	if err != nil {
		return nil, err
	}

	reportPipelineDuration, err := meter.Float64Histogram(
		"report_pipeline_duration_seconds",
		metric.WithDescription("End to end report pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	reportStageDuration, err := meter.Float64Histogram(
		"report_stage_duration_seconds",
		metric.WithDescription("Report pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	reportFailuresTotal, err := meter.Int64Counter(
		"report_failures_total",
		metric.WithDescription("Total number of failed report requests by error type"),
	)
	if err != nil {
		return nil, err
	}

	reportActivePipelines, err := meter.Int64UpDownCounter(
		"report_active_pipelines",
		metric.WithDescription("Number of report pipelines in flight"),
	)
	if err != nil {
		return nil, err
	}

	reportUploadBytes, err := meter.Int64Counter(
		"report_upload_bytes_total",
		metric.WithDescription("Total bytes of uploaded exports"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,

		ReportUploadsTotal:     reportUploadsTotal,
		ReportRowsIngested:     reportRowsIngested,
		ReportRowsFiltered:     reportRowsFiltered,
		ReportPipelineDuration: reportPipelineDuration,
		ReportStageDuration:    reportStageDuration,
		ReportFailuresTotal:    reportFailuresTotal,
		ReportActivePipelines:  reportActivePipelines,
		ReportUploadBytes:      reportUploadBytes,
	}, nil
}

// RecordReportMetrics records the outcome of one report pipeline run.
// A nil receiver is a no-op so callers without metrics need no guards.
func (m *BusinessMetrics) RecordReportMetrics(ctx context.Context, source string, rows, kept int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	)

	m.ReportUploadsTotal.Add(ctx, 1, attrs)
	m.ReportPipelineDuration.Record(ctx, duration.Seconds(), attrs)

	if rows > 0 {
		m.ReportRowsIngested.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
	}
	if kept > 0 {
		m.ReportRowsFiltered.Add(ctx, int64(kept), metric.WithAttributes(attribute.String("source", source)))
	}

	if err != nil {
		m.ReportFailuresTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("error_type", ErrorTypeOf(err)),
		))
	}
}

// RecordStageMetrics records the duration of a single pipeline stage
func (m *BusinessMetrics) RecordStageMetrics(ctx context.Context, stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.ReportStageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", err == nil),
	))
}

// TrackActivePipeline increments the in-flight gauge and returns the
// matching decrement
func (m *BusinessMetrics) TrackActivePipeline(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.ReportActivePipelines.Add(ctx, 1)
	return func() { m.ReportActivePipelines.Add(ctx, -1) }
}

// RecordUploadBytes records the size of an accepted upload
func (m *BusinessMetrics) RecordUploadBytes(ctx context.Context, size int64) {
	if m == nil || size <= 0 {
		return
	}
	m.ReportUploadBytes.Add(ctx, size)
}
