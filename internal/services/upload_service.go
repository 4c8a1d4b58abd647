package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"refund-service/internal/blob"
	"refund-service/internal/models"
)

// Upload kinds name the object prefix a file is stored under.
const (
	UploadReceipt = "receipts"
	UploadWorkLog = "worklogs"
	UploadExcel   = "excel"
)

var uploadExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

type UploadService struct {
	blobs  blob.Store
	logger *slog.Logger
}

func NewUploadService(blobs blob.Store, logger *slog.Logger) *UploadService {
	return &UploadService{blobs: blobs, logger: logger}
}

// UploadTicket is a presigned PUT the client uploads one file with.
type UploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// Presign issues an upload URL for one file of the given kind. Spreadsheets
// are only accepted for the excel kind.
func (s *UploadService) Presign(ctx context.Context, user *models.User, kind, contentType string) (*UploadTicket, error) {
	switch kind {
	case UploadReceipt, UploadWorkLog, UploadExcel:
	default:
		return nil, invalid("unknown upload kind %q", kind)
	}
	ext, ok := uploadExtensions[contentType]
	if !ok || (ext == ".xlsx") != (kind == UploadExcel) {
		return nil, invalid("content type %q is not allowed for %s uploads", contentType, kind)
	}

	key := blob.UploadKey(kind, user.Username, ext)
	url, ttl, err := s.blobs.PresignPut(ctx, key, contentType)
	if errors.Is(err, blob.ErrDisabled) {
		return nil, invalid("file uploads are not configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	s.logger.Debug("upload presigned", "user", user.Username, "key", key)
	return &UploadTicket{UploadURL: url, Key: key, ExpiresIn: int(ttl / time.Second)}, nil
}
