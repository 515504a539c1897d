package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"salespulse/internal/dataprocessing"
	apperrors "salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	"salespulse/internal/validation"
	"salespulse/pkg/contracts/domain"
)

// Report sources, used as a metric attribute
const (
	SourceUpload = "upload"
	SourceFile   = "file"
)

// UploadRequest is one uploaded export plus its raw filter form.
// Size is the declared size in bytes, or -1 when unknown.
type UploadRequest struct {
	FileName string
	Content  io.Reader
	Size     int64
	Form     domain.FilterForm
}

// ReportService runs the report pipeline for one export at a time.
// It holds no per-request state and is safe for concurrent use.
type ReportService struct {
	files    *files.Manager
	uploads  *validation.UploadValidator
	filters  *validation.FilterFormValidator
	parser   *dataprocessing.Parser
	analyzer *dataprocessing.Analyzer
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// ReportServiceOption customizes a ReportService
type ReportServiceOption func(*ReportService)

// WithTracer sets the tracer used for pipeline stage spans
func WithTracer(tracer trace.Tracer) ReportServiceOption {
	return func(s *ReportService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics sets the business metrics recorded per run
func WithMetrics(metrics *infrastructure.BusinessMetrics) ReportServiceOption {
	return func(s *ReportService) {
		s.metrics = metrics
	}
}

// NewReportService creates a report service with injected dependencies
func NewReportService(
	fileManager *files.Manager,
	uploads *validation.UploadValidator,
	parser *dataprocessing.Parser,
	analyzer *dataprocessing.Analyzer,
	logger *slog.Logger,
	opts ...ReportServiceOption,
) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &ReportService{
		files:    fileManager,
		uploads:  uploads,
		filters:  validation.NewFilterFormValidator(),
		parser:   parser,
		analyzer: analyzer,
		tracer:   noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger:   logger.With(slog.String("component", "report_service")),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("ReportService initialized",
		slog.String("scratch_dir", fileManager.BaseDir()),
		slog.Int64("max_upload_bytes", uploads.MaxBytes()),
		slog.String("week_numbering", string(analyzer.WeekNumbering())))

	return s
}

// ProcessUpload validates the upload, stores it in request-scoped scratch
// storage, and returns the normalized report payload. The scratch directory
// is gone by the time this returns, whatever the outcome.
func (s *ReportService) ProcessUpload(ctx context.Context, req UploadRequest) (map[string]interface{}, error) {
	if req.Content == nil {
		return nil, s.uploads.MissingFilePart()
	}
	if err := s.uploads.Validate(req.FileName, req.Size); err != nil {
		s.metrics.RecordReportMetrics(ctx, SourceUpload, 0, 0, 0, err)
		return nil, err
	}

	var payload map[string]interface{}
	err := s.files.WithScratch(func(scratch *files.Scratch) error {
		path, err := scratch.Save(req.FileName, req.Content, s.uploads.MaxBytes())
		if err != nil {
			return s.saveError(err)
		}
		if info, err := os.Stat(path); err == nil {
			s.metrics.RecordUploadBytes(ctx, info.Size())
		}

		report, err := s.run(ctx, SourceUpload, req.FileName, func(ctx context.Context) ([]domain.Transaction, error) {
			return s.parser.ParseFile(ctx, path)
		}, req.Form)
		if err != nil {
			return err
		}

		payload, err = s.normalize(ctx, report)
		return err
	})
	if err != nil {
		return nil, err
	}

	return payload, nil
}

// ProcessFile runs the pipeline over an export already on disk and returns
// the report before normalization, for exporters that need typed rows.
func (s *ReportService) ProcessFile(ctx context.Context, path string, form domain.FilterForm) (*domain.Report, error) {
	return s.run(ctx, SourceFile, filepath.Base(path), func(ctx context.Context) ([]domain.Transaction, error) {
		return s.parser.ParseFile(ctx, path)
	}, form)
}

// Normalize converts a report into its interchange payload
func (s *ReportService) Normalize(ctx context.Context, report *domain.Report) (map[string]interface{}, error) {
	return s.normalize(ctx, report)
}

// run executes parse, filter validation and aggregation under one span each
func (s *ReportService) run(
	ctx context.Context,
	source, name string,
	parse func(context.Context) ([]domain.Transaction, error),
	form domain.FilterForm,
) (report *domain.Report, err error) {
	start := time.Now()
	var rows, kept int

	ctx, span := s.tracer.Start(ctx, "report.pipeline", trace.WithAttributes(
		attribute.String("report.source", source),
		attribute.String("report.file", name),
	))
	done := s.metrics.TrackActivePipeline(ctx)
	defer func() {
		done()
		s.metrics.RecordReportMetrics(ctx, source, rows, kept, time.Since(start), err)
		endSpan(span, err)
	}()

	records, err := stage(ctx, s, infrastructure.StageParse, func(ctx context.Context) ([]domain.Transaction, error) {
		return parse(ctx)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Export rejected",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return nil, err
	}
	rows = len(records)
	infrastructure.AddSpanEvent(ctx, "export.parsed", attribute.Int("rows", rows))

	spec, err := stage(ctx, s, infrastructure.StageFilter, func(ctx context.Context) (domain.FilterSpec, error) {
		clean, err := s.filters.Validate(form)
		if err != nil {
			return domain.FilterSpec{}, err
		}
		return dataprocessing.BuildFilterSpec(clean)
	})
	if err != nil {
		return nil, err
	}

	report, err = stage(ctx, s, infrastructure.StageAggregate, func(ctx context.Context) (*domain.Report, error) {
		return s.analyzer.Analyze(ctx, records, spec)
	})
	if err != nil {
		return nil, err
	}
	kept = report.TransactionCount()
	infrastructure.AddSpanEvent(ctx, "report.aggregated",
		attribute.Int("filtered_rows", kept),
		attribute.Int("days", len(report.DailySales)))

	s.logger.InfoContext(ctx, "Report built",
		slog.String("source", source),
		slog.String("file", name),
		slog.Int("rows", rows),
		slog.Int("filtered_rows", kept),
		slog.Bool("filtered", !spec.IsEmpty()),
		slog.Duration("duration", time.Since(start)),
		slog.String("otel_trace_id", infrastructure.TraceIDFromContext(ctx)))

	return report, nil
}

func (s *ReportService) normalize(ctx context.Context, report *domain.Report) (map[string]interface{}, error) {
	return stage(ctx, s, infrastructure.StageNormalize, func(context.Context) (map[string]interface{}, error) {
		return dataprocessing.NormalizeReport(report)
	})
}

// stage runs fn inside a "report.<name>" span and records its duration
func stage[T any](ctx context.Context, s *ReportService, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "report."+name)
	start := time.Now()

	result, err := fn(ctx)

	s.metrics.RecordStageMetrics(ctx, name, time.Since(start), err)
	endSpan(span, err)
	return result, err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("error.type", infrastructure.ErrorTypeOf(err)))
	}
	span.End()
}

// saveError maps scratch storage failures onto the upload error taxonomy
func (s *ReportService) saveError(err error) error {
	switch {
	case errors.Is(err, files.ErrFileTooLarge):
		return s.uploads.ValidateSize(s.uploads.MaxBytes() + 1)
	case errors.Is(err, files.ErrInvalidFileName):
		return apperrors.NewUploadError("No selected file", ErrEmptyFileName)
	}

	// A body cut off by http.MaxBytesReader is rendered as 413 by the error handler
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return apperrors.NewStorageError("failed to store upload", err)
}
