// Package cdn uploads drop source files to the configured CDN endpoint.
// Uploads are best-effort: every failure becomes an UPLOAD error the
// caller logs and recovers from, never a fatal condition.
package cdn

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

	"github.com/opoerator/drop/internal/config"
	"github.com/opoerator/drop/internal/errors"
)

const uploadTimeout = 30 * time.Second

// Uploader posts files to a CDN upload endpoint.
type Uploader struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

// New creates an uploader from the resolved configuration. An uploader
// with no endpoint is valid; every Upload on it fails (non-fatally).
func New(cfg *config.Config) *Uploader {
	return &Uploader{
		uploadURL:  cfg.CDNUploadURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: uploadTimeout},
	}
}

// uploadResponse is the JSON body the CDN returns on success.
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts the file at path and returns its CDN URL. All failure
// modes (no endpoint configured, unreadable file, network error, non-2xx
// response) return an UPLOAD error.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	if u.uploadURL == "" {
		return "", errors.NewUpload(fmt.Errorf("no CDN upload URL configured"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewUpload(err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", errors.NewUpload(err)
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.NewUpload(err)
	}
	if err := writer.Close(); err != nil {
		return "", errors.NewUpload(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &buf)
	if err != nil {
		return "", errors.NewUpload(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("X-API-Key", u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", errors.NewUpload(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewUpload(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewUpload(fmt.Errorf("CDN returned %d: %s", resp.StatusCode, body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.NewUpload(fmt.Errorf("decode CDN response: %w", err))
	}
	if parsed.URL == "" {
		return "", errors.NewUpload(fmt.Errorf("CDN response missing url"))
	}
	return parsed.URL, nil
}
