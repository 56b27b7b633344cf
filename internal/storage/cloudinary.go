package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adi-253/Chatline/client/internal/models"
)

// CloudinaryClient uploads image and video files through Cloudinary's
// unsigned upload endpoint.
type CloudinaryClient struct {
	uploadURL  string
	preset     string
	folder     string
	httpClient *http.Client
}

// cloudinaryResponse is the subset of the upload response we consume.
type cloudinaryResponse struct {
	SecureURL        string `json:"secure_url"`
	ResourceType     string `json:"resource_type"`
	OriginalFilename string `json:"original_filename"`
	CreatedAt        string `json:"created_at"`
}

// NewCloudinaryClient creates a client for an unsigned upload preset.
func NewCloudinaryClient(uploadURL, preset, folder string) *CloudinaryClient {
	if folder == "" {
		folder = "chatapp_files"
	}
	return &CloudinaryClient{
		uploadURL: uploadURL,
		preset:    preset,
		folder:    folder,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Upload posts the file as multipart form data and returns the secure
// URL the provider assigned.
func (c *CloudinaryClient) Upload(ctx context.Context, fileName, contentType string, data []byte) (*models.FileMetadata, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", SanitizeFilename(fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file part: %w", err)
	}
	if err := writer.WriteField("upload_preset", c.preset); err != nil {
		return nil, fmt.Errorf("failed to write preset field: %w", err)
	}
	if err := writer.WriteField("folder", c.folder); err != nil {
		return nil, fmt.Errorf("failed to write folder field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cloudinary error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed cloudinaryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}

	log.Info().Msgf("[upload] cloudinary stored %s as %s", fileName, parsed.SecureURL)
	return &models.FileMetadata{
		URL:          parsed.SecureURL,
		ResourceType: parsed.ResourceType,
		FileName:     parsed.OriginalFilename,
		CreatedAt:    parsed.CreatedAt,
	}, nil
}
