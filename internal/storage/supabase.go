package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
)

// SupabaseClient uploads PDF-class documents into a Supabase storage
// bucket and returns the public URL of the stored object.
type SupabaseClient struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client

	// now is swapped in tests to pin the object path
	now func() time.Time
}

// NewSupabaseClient creates a storage client for the given project.
func NewSupabaseClient(baseURL, apiKey, bucket string) *SupabaseClient {
	return &SupabaseClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		now: time.Now,
	}
}

// Upload stores the document under a timestamped path inside the bucket.
func (c *SupabaseClient) Upload(ctx context.Context, fileName, contentType string, data []byte) (*models.FileMetadata, error) {
	safeName := SanitizeFilename(fileName)
	objectPath := fmt.Sprintf("pdfs/%d-%s", c.now().UnixMilli(), safeName)

	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase storage error (status %d): %s", resp.StatusCode, string(respBody))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
	log.Info().Msgf("[upload] supabase stored %s as %s", fileName, publicURL)
	return &models.FileMetadata{
		URL:          publicURL,
		ResourceType: "pdf",
		FileName:     safeName,
		CreatedAt:    c.now().UTC().Format(time.RFC3339),
	}, nil
}
