package http

import (
	"context"

	"salespulse/internal/services"
)

// ReportServiceInterface defines the report operations the handler needs
type ReportServiceInterface interface {
	ProcessUpload(ctx context.Context, req services.UploadRequest) (map[string]interface{}, error)
}
