package store

// http.go uploads artifacts to a pre-authorized HTTP endpoint (e.g. an
// S3-compatible gateway or a signed-URL upload proxy).
//
// wire contract: PUT <uploadURL>/<key> with Content-Type
// application/octet-stream; any 2xx is success and the artifact is then
// fetchable at <publicBaseURL>/<key> (or the URL in a Location header when
// the endpoint returns one).

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPStore uploads artifacts over HTTP.
type HTTPStore struct {
	uploadURL  string
	baseURL    string
	httpClient *http.Client
}

// NewHTTPStore creates an HTTP-backed store.
//
// Parameters:
//   - uploadURL: the upload endpoint prefix
//   - baseURL: the public HTTPS prefix artifacts are fetchable under
//   - timeout: per-attempt HTTP timeout
func NewHTTPStore(uploadURL, baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		uploadURL:  strings.TrimSuffix(uploadURL, "/"),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Put uploads the blob and returns its public URL.
// PUT to the same key overwrites, so retrying a partially failed upload is safe.
func (s *HTTPStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if key == "" {
		return "", NewUploadError("key is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.uploadURL+"/"+key, bytes.NewReader(data))
	if err != nil {
		return "", WrapUploadError(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", WrapRetryableUploadError(err, "upload request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if location := resp.Header.Get("Location"); location != "" {
			return location, nil
		}
		return s.baseURL + "/" + key, nil

	case resp.StatusCode >= 500:
		return "", WrapRetryableUploadError(
			fmt.Errorf("upload endpoint returned HTTP %d", resp.StatusCode), "upload failed")

	default:
		return "", NewUploadError(fmt.Sprintf("upload endpoint rejected request with HTTP %d", resp.StatusCode))
	}
}
