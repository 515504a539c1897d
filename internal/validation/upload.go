package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/files"
)

// Sentinel causes carried by upload validation failures
var (
	ErrNoFilePart          = errors.New("no file part in request")
	ErrEmptyFileName       = errors.New("empty file name")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUploadTooLarge      = errors.New("upload exceeds size limit")
)

// UploadValidator checks an uploaded file before it reaches the parser
type UploadValidator struct {
	discovery  *files.Discovery
	extensions []string
	maxBytes   int64
	logger     *slog.Logger
}

// NewUploadValidator creates an upload validator. maxBytes <= 0 disables the
// size check.
func NewUploadValidator(extensions []string, maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		discovery:  files.NewDiscovery(extensions...),
		extensions: extensions,
		maxBytes:   maxBytes,
		logger:     logger.With(slog.String("component", "upload_validator")),
	}
}

// MaxBytes returns the configured size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// MissingFilePart is the error for a multipart request without a file field
func (v *UploadValidator) MissingFilePart() error {
	return apierrors.NewUploadError("No file part", ErrNoFilePart)
}

// ValidateFileName rejects empty names and unsupported extensions
func (v *UploadValidator) ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apierrors.NewUploadError("No selected file", ErrEmptyFileName)
	}

	if !v.discovery.Matches(name) {
		v.logger.Warn("Rejected upload with unsupported extension",
			slog.String("file", name),
			slog.String("extension", filepath.Ext(name)))
		return apierrors.NewUploadError(v.unsupportedMessage(), ErrUnsupportedFileType).
			WithContext("file", name)
	}

	return nil
}

// ValidateSize rejects files larger than the configured limit
func (v *UploadValidator) ValidateSize(size int64) error {
	if v.maxBytes > 0 && size > v.maxBytes {
		return fmt.Errorf("%w: %w", ErrUploadTooLarge,
			apierrors.PayloadTooLarge(apierrors.UploadTooLargeMessage(v.maxBytes), v.maxBytes, size))
	}
	return nil
}

// Validate runs every upload check
func (v *UploadValidator) Validate(name string, size int64) error {
	if err := v.ValidateFileName(name); err != nil {
		return err
	}
	return v.ValidateSize(size)
}

func (v *UploadValidator) unsupportedMessage() string {
	names := make([]string, 0, len(v.extensions))
	for _, ext := range v.extensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			names = append(names, strings.ToUpper(ext))
		}
	}
	if len(names) == 0 {
		return "File uploads are not accepted"
	}
	return fmt.Sprintf("Only %s files are allowed", strings.Join(names, " or "))
}
