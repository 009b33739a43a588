package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/campusgrid/grievance/apperr"
	"github.com/campusgrid/grievance/db"
)

// MediaStore abstracts the external blob store. Uploads happen before
// any complaint row is written; Delete compensates when the row insert
// fails, and also serves hard cleanup.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (*db.MediaRef, error)
	Delete(ctx context.Context, publicID string) error
}

// MediaClient talks to the media store's HTTP API.
type MediaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMediaClient(baseURL, apiKey string) *MediaClient {
	return &MediaClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

var _ MediaStore = (*MediaClient)(nil)

type mediaUploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Error    string `json:"error,omitempty"`
}

// Upload streams the file at localPath to the media store and returns
// its reference.
func (c *MediaClient) Upload(ctx context.Context, localPath string) (*db.MediaRef, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/media", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Upstream("media upload", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apperr.Upstream("media upload",
			fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(body)))
	}

	var out mediaUploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperr.Upstream("media upload", fmt.Errorf("unparseable response: %v", err))
	}
	if out.URL == "" || out.PublicID == "" {
		return nil, apperr.Upstream("media upload", fmt.Errorf("incomplete response: %s", string(body)))
	}

	return &db.MediaRef{URL: out.URL, PublicID: out.PublicID}, nil
}

// Delete removes a previously uploaded blob by its public id.
func (c *MediaClient) Delete(ctx context.Context, publicID string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/v1/media/"+publicID, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream("media delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return apperr.Upstream("media delete",
			fmt.Errorf("store returned status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}
