package signing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brightcard/walletpass/internal/crypto"
)

var testManifest = []byte(`{"pass.json":"2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"}`)

func TestRemoteSignerRawResponse(t *testing.T) {
	wantSignature := []byte("der-signature-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("content type = %q, want application/octet-stream", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Equal(body, testManifest) {
			t.Error("request body is not the manifest bytes")
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(wantSignature)
	}))
	defer server.Close()

	signer := NewRemoteSigner(server.URL, 5*time.Second, 0)

	got, err := signer.Sign(context.Background(), testManifest)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if !bytes.Equal(got, wantSignature) {
		t.Errorf("signature = %q, want %q", got, wantSignature)
	}
}

func TestRemoteSignerJSONResponse(t *testing.T) {
	wantSignature := []byte("der-signature-bytes")
	encoded := base64.StdEncoding.EncodeToString(wantSignature)

	tests := []struct {
		name string
		body string
	}{
		{name: "signature field", body: fmt.Sprintf(`{"signature":%q}`, encoded)},
		{name: "signatureBase64 field", body: fmt.Sprintf(`{"signatureBase64":%q}`, encoded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			signer := NewRemoteSigner(server.URL, 5*time.Second, 0)

			got, err := signer.Sign(context.Background(), testManifest)
			if err != nil {
				t.Fatalf("Sign() error = %v", err)
			}
			if !bytes.Equal(got, wantSignature) {
				t.Errorf("signature = %q, want %q", got, wantSignature)
			}
		})
	}
}

func TestRemoteSignerRetriesTransientFailures(t *testing.T) {
	wantSignature := []byte("der-signature-bytes")
	var attempts atomic.Int32

	// three 503s, then success - with three retries the fourth attempt lands
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(wantSignature)
	}))
	defer server.Close()

	signer := NewRemoteSigner(server.URL, 5*time.Second, 3)

	got, err := signer.Sign(context.Background(), testManifest)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if !bytes.Equal(got, wantSignature) {
		t.Errorf("signature = %q, want %q", got, wantSignature)
	}
	if n := attempts.Load(); n != 4 {
		t.Errorf("endpoint saw %d attempts, want 4", n)
	}
}

func TestRemoteSignerExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	signer := NewRemoteSigner(server.URL, 5*time.Second, 2)

	_, err := signer.Sign(context.Background(), testManifest)
	if err == nil {
		t.Fatal("Sign() should fail when the endpoint never recovers")
	}

	var cryptoErr *crypto.CryptoError
	if !errors.As(err, &cryptoErr) || cryptoErr.Code() != crypto.ErrCodeSigning {
		t.Errorf("error = %v, want signing CryptoError", err)
	}
	if n := attempts.Load(); n != 3 {
		t.Errorf("endpoint saw %d attempts, want 3 (initial + 2 retries)", n)
	}
}

func TestRemoteSignerDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	signer := NewRemoteSigner(server.URL, 5*time.Second, 5)

	_, err := signer.Sign(context.Background(), testManifest)
	if err == nil {
		t.Fatal("Sign() should fail on a 4xx response")
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("endpoint saw %d attempts, want 1 (4xx must not be retried)", n)
	}
}

func TestRemoteSignerRejectsMalformedResponses(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{name: "empty body", contentType: "application/octet-stream", body: ""},
		{name: "JSON without signature", contentType: "application/json", body: `{"status":"ok"}`},
		{name: "JSON with invalid base64", contentType: "application/json", body: `{"signature":"!!!"}`},
		{name: "JSON body not JSON", contentType: "application/json", body: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.Header().Set("Content-Type", tt.contentType)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			signer := NewRemoteSigner(server.URL, 5*time.Second, 3)

			if _, err := signer.Sign(context.Background(), testManifest); err == nil {
				t.Error("Sign() should reject the malformed response")
			}
			if n := attempts.Load(); n != 1 {
				t.Errorf("endpoint saw %d attempts, want 1 (malformed responses are fatal)", n)
			}
		})
	}
}

func TestRemoteSignerHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	signer := NewRemoteSigner(server.URL, 5*time.Second, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := signer.Sign(ctx, testManifest); err == nil {
		t.Error("Sign() should stop when the context is cancelled")
	}
}
