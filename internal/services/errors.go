package services

import "salespulse/internal/validation"

// Upload errors. Returned errors wrap these as their cause, so callers can
// use errors.Is.
var (
	ErrNoFileUploaded      = validation.ErrNoFilePart
	ErrEmptyFileName       = validation.ErrEmptyFileName
	ErrUnsupportedFileType = validation.ErrUnsupportedFileType
	ErrUploadTooLarge      = validation.ErrUploadTooLarge
)
