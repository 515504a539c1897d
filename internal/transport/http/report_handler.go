package http

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// Multipart form field names
const (
	FieldFile      = "file"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldProfiles  = "profiles[]"
	FieldProfile   = "profiles"
	FieldMinPrice  = "min_price"
	FieldMaxPrice  = "max_price"
)

// multipartMemory is how much of a multipart body is kept in memory before
// the standard library spills file parts to disk
const multipartMemory = 8 << 20

// ReportHandler handles report uploads with RFC 7807 compliance
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the report routes, mounted under /api/reports
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/upload", h.Upload)
	return r
}

// Upload handles POST /api/reports/upload and the legacy POST /upload
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, cleanup, err := h.decodeUpload(r)
	defer cleanup()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(ctx, "Upload received",
		slog.String("file", req.FileName),
		slog.Int64("size", req.Size),
		slog.Int("profiles", len(req.Form.Profiles)),
		slog.String("start_date", req.Form.StartDate),
		slog.String("end_date", req.Form.EndDate),
		slog.String("min_price", req.Form.MinPrice),
		slog.String("max_price", req.Form.MaxPrice))

	payload, err := h.service.ProcessUpload(ctx, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, payload)
}

// decodeUpload parses the multipart body. The returned cleanup closes the
// file part and removes any temp files; it is always safe to call.
func (h *ReportHandler) decodeUpload(r *http.Request) (services.UploadRequest, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			return services.UploadRequest{}, cleanup, err
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return services.UploadRequest{}, cleanup, apierrors.NewUploadError("No file part", services.ErrNoFileUploaded)
		default:
			return services.UploadRequest{}, cleanup, apierrors.NewUploadError("Malformed multipart request", err)
		}
	}
	if r.MultipartForm != nil {
		form := r.MultipartForm
		cleanup = func() { _ = form.RemoveAll() }
	}

	req := services.UploadRequest{
		Size: -1,
		Form: filterForm(r.MultipartForm),
	}

	file, header, err := r.FormFile(FieldFile)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		// Content stays nil; the service reports the missing part
		return req, cleanup, nil
	case err != nil:
		return req, cleanup, apierrors.NewUploadError("Malformed multipart request", err)
	}

	removeAll := cleanup
	cleanup = func() {
		_ = file.Close()
		removeAll()
	}

	req.FileName = header.Filename
	req.Content = file
	req.Size = header.Size
	return req, cleanup, nil
}

// filterForm collects the raw filter fields; absent fields stay empty
func filterForm(form *multipart.Form) domain.FilterForm {
	if form == nil {
		return domain.FilterForm{}
	}

	first := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	profiles := append([]string{}, form.Value[FieldProfiles]...)
	profiles = append(profiles, form.Value[FieldProfile]...)

	return domain.FilterForm{
		StartDate: first(FieldStartDate),
		EndDate:   first(FieldEndDate),
		Profiles:  profiles,
		MinPrice:  first(FieldMinPrice),
		MaxPrice:  first(FieldMaxPrice),
	}
}
