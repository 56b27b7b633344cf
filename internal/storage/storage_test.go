package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-253/Chatline/client/internal/models"
)

type stubUploader struct {
	called bool
	meta   models.FileMetadata
}

func (s *stubUploader) Upload(ctx context.Context, fileName, contentType string, data []byte) (*models.FileMetadata, error) {
	s.called = true
	meta := s.meta
	return &meta, nil
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report (final).pdf", "my_report__final_.pdf"},
		{"über-zeit.png", "_ber-zeit.png"},
		{"a/b\\c.txt", "a_b_c.txt"},
		{"safe_name-1.2.mp4", "safe_name-1.2.mp4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestServiceRoutesByContentType(t *testing.T) {
	media := &stubUploader{meta: models.FileMetadata{URL: "https://cdn.example/a.png"}}
	docs := &stubUploader{meta: models.FileMetadata{URL: "https://cdn.example/a.pdf"}}
	s := NewService(media, docs)

	tests := []struct {
		name        string
		contentType string
		wantMedia   bool
		wantDocs    bool
	}{
		{"image", "image/png", true, false},
		{"video", "video/mp4", true, false},
		{"pdf", "application/pdf", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media.called, docs.called = false, false
			_, err := s.Upload(context.Background(), "f", tt.contentType, []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMedia, media.called)
			assert.Equal(t, tt.wantDocs, docs.called)
		})
	}
}

func TestServiceRejectsUnsupportedType(t *testing.T) {
	s := NewService(&stubUploader{}, &stubUploader{})
	_, err := s.Upload(context.Background(), "notes.txt", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestServiceEnforcesSizeCeiling(t *testing.T) {
	media := &stubUploader{}
	s := NewService(media, nil)

	big := make([]byte, MaxFileSize+1)
	_, err := s.Upload(context.Background(), "huge.png", "image/png", big)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.False(t, media.called, "no network call for oversize files")

	// Exactly at the ceiling is allowed.
	exact := make([]byte, MaxFileSize)
	_, err = s.Upload(context.Background(), "exact.png", "image/png", exact)
	assert.NoError(t, err)
}
