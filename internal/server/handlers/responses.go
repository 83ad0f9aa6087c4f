package handlers

// responses.go maps pipeline errors onto HTTP responses.
//
// mapping policy: caller-contract violations (bad request body, invalid card
// input) are 400; a document or bundle that fails validation is 422; signing
// and upload collaborator failures are 502; everything else is 500. The raw
// error text is logged server-side but never leaked to the client for 5xx.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brightcard/walletpass/internal/bundle"
	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/brightcard/walletpass/internal/issuer"
	"github.com/brightcard/walletpass/internal/pass"
	"github.com/brightcard/walletpass/internal/store"
)

// errorResponse is the JSON error body returned to clients
type errorResponse struct {
	Error string `json:"error"`
}

// RespondWithJSON writes a JSON response with the supplied status code.
func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already written; nothing more can be done here
		return
	}
}

// RespondWithError maps err to a status code and writes the error body.
func RespondWithError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, message := statusFor(err)

	if status >= 500 {
		logger.Error("request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}

	RespondWithJSON(w, status, errorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	if errors.Is(err, issuer.ErrInvalidRequest) {
		return http.StatusBadRequest, err.Error()
	}

	var docErr *pass.DocumentError
	if errors.As(err, &docErr) {
		return http.StatusUnprocessableEntity, docErr.Error()
	}

	var bundleErr *bundle.ValidationError
	if errors.As(err, &bundleErr) {
		return http.StatusUnprocessableEntity, bundleErr.Error()
	}

	var uploadErr *store.UploadError
	if errors.As(err, &uploadErr) {
		return http.StatusBadGateway, "artifact upload failed"
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		switch cryptoErr.Code() {
		case crypto.ErrCodeSigning:
			return http.StatusBadGateway, "artifact signing failed"
		case crypto.ErrCodeValidation:
			return http.StatusBadRequest, cryptoErr.Error()
		default:
			return http.StatusInternalServerError, "internal error"
		}
	}

	return http.StatusInternalServerError, "internal error"
}
