// Package storage holds the object-storage upload clients: a
// Cloudinary-style unsigned upload path for image/video files and a
// Supabase-style bucket upload path for PDF-class documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/adi-253/Chatline/client/internal/models"
)

// MaxFileSize is the ceiling for file attachments. Larger files are
// rejected before any network call.
const MaxFileSize = 25 * 1024 * 1024

var (
	// ErrFileTooLarge means the attachment exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file size too large, maximum 25MB allowed")

	// ErrUnsupportedType means the MIME type maps to no upload path.
	ErrUnsupportedType = errors.New("unsupported file type, only images, videos and PDFs are allowed")
)

// Uploader pushes one file to an object-storage provider and returns
// where it landed.
type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (*models.FileMetadata, error)
}

// Service classifies files by MIME type and delegates to the matching
// upload path.
type Service struct {
	media Uploader // image/* and video/*
	docs  Uploader // application/pdf
}

// NewService creates an upload service over the two provider clients.
func NewService(media, docs Uploader) *Service {
	return &Service{media: media, docs: docs}
}

// Upload validates the attachment and hands it to the provider that
// serves its type.
func (s *Service) Upload(ctx context.Context, fileName, contentType string, data []byte) (*models.FileMetadata, error) {
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	switch {
	case strings.HasPrefix(contentType, "image/"), strings.HasPrefix(contentType, "video/"):
		if s.media == nil {
			return nil, fmt.Errorf("media uploads not configured")
		}
		return s.media.Upload(ctx, fileName, contentType, data)
	case contentType == "application/pdf":
		if s.docs == nil {
			return nil, fmt.Errorf("document uploads not configured")
		}
		return s.docs.Upload(ctx, fileName, contentType, data)
	default:
		return nil, ErrUnsupportedType
	}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_.\-]`)

// SanitizeFilename replaces characters the storage providers reject.
func SanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}
