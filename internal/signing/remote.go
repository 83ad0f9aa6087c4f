package signing

// remote.go delegates manifest signing to an HTTP signing endpoint.
//
// wire contract:
//   - request: POST <url> with Content-Type: application/octet-stream and the
//     manifest bytes as the body
//   - success: either raw signature bytes (application/octet-stream) or a JSON
//     object carrying the base64-encoded signature under "signature" or
//     "signatureBase64"
//
// failure semantics: connection errors and 5xx responses are transient and
// retried with bounded backoff; a 4xx or a malformed response body is fatal
// for the artifact. A fatal response never degrades into a placeholder
// signature.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/brightcard/walletpass/internal/crypto"
)

// response size cap for the delegated signer - signatures are a few KB
const maxRemoteResponseSize = 1 << 20

// initial backoff between delegated signing attempts
const remoteBackoffBase = 250 * time.Millisecond

// RemoteSigner delegates signing to a collaborator endpoint.
type RemoteSigner struct {
	url        string
	maxRetries uint64
	httpClient *http.Client
}

// remoteResponse is the JSON response shape some signing endpoints return.
// both field spellings are accepted.
type remoteResponse struct {
	Signature       string `json:"signature"`
	SignatureBase64 string `json:"signatureBase64"`
}

// NewRemoteSigner creates a delegating manifest signer.
//
// Parameters:
//   - url: the signing endpoint
//   - timeout: per-attempt HTTP timeout (a stalled collaborator must not hold
//     a worker indefinitely)
//   - maxRetries: additional attempts after the first for transient failures
func NewRemoteSigner(url string, timeout time.Duration, maxRetries int) *RemoteSigner {
	return &RemoteSigner{
		url:        url,
		maxRetries: uint64(maxRetries),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Sign posts the manifest bytes to the signing endpoint and returns the
// signature bytes from its response.
func (s *RemoteSigner) Sign(ctx context.Context, manifestBytes []byte) ([]byte, error) {
	if len(manifestBytes) == 0 {
		return nil, crypto.NewSigningError("manifest bytes are empty")
	}

	var signature []byte

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewFibonacci(remoteBackoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		sig, err := s.signOnce(ctx, manifestBytes)
		if err != nil {
			return err
		}
		signature = sig
		return nil
	})
	if err != nil {
		return nil, err
	}

	return signature, nil
}

// signOnce performs a single delegated signing attempt.
// transient failures are marked retryable; everything else is fatal.
func (s *RemoteSigner) signOnce(ctx context.Context, manifestBytes []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(manifestBytes))
	if err != nil {
		return nil, crypto.WrapSigningError(err, "failed to build signing request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// connection errors and timeouts are transient
		return nil, retry.RetryableError(crypto.WrapSigningError(err, "signing request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteResponseSize))
	if err != nil {
		return nil, retry.RetryableError(crypto.WrapSigningError(err, "failed to read signing response"))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return parseRemoteSignature(resp.Header.Get("Content-Type"), body)

	case resp.StatusCode >= 500:
		return nil, retry.RetryableError(crypto.NewSigningError(
			fmt.Sprintf("signing endpoint returned HTTP %d", resp.StatusCode)))

	default:
		// 4xx means the request itself is wrong - retrying cannot help
		return nil, crypto.NewSigningError(fmt.Sprintf("signing endpoint rejected request with HTTP %d", resp.StatusCode))
	}
}

// parseRemoteSignature extracts the signature bytes from a success response.
func parseRemoteSignature(contentType string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return nil, crypto.NewSigningError("signing endpoint returned an empty body")
	}

	if strings.HasPrefix(contentType, "application/json") {
		var parsed remoteResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, crypto.WrapSigningError(err, "could not unmarshal signing response")
		}

		encoded := parsed.Signature
		if encoded == "" {
			encoded = parsed.SignatureBase64
		}
		if encoded == "" {
			return nil, crypto.NewSigningError("signing response carries no signature field")
		}

		signature, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, crypto.WrapSigningError(err, "signing response signature is not valid base64")
		}
		return signature, nil
	}

	// any non-JSON success response is treated as raw signature bytes
	return body, nil
}
