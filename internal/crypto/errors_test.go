package crypto

import (
	"errors"
	"fmt"
	"testing"
)

func TestCryptoErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{name: "key parse", err: NewKeyParseError("bad key"), code: ErrCodeKeyParse},
		{name: "signing", err: NewSigningError("bad signature"), code: ErrCodeSigning},
		{name: "validation", err: NewValidationError("bad input"), code: ErrCodeValidation},
		{name: "internal", err: NewInternalError("broken"), code: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cryptoErr *CryptoError
			if !errors.As(tt.err, &cryptoErr) {
				t.Fatalf("error %v is not a CryptoError", tt.err)
			}
			if cryptoErr.Code() != tt.code {
				t.Errorf("code = %v, want %v", cryptoErr.Code(), tt.code)
			}
		})
	}
}

func TestCryptoErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapSigningError(cause, "signing failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}

	wrapped := fmt.Errorf("pipeline: %w", err)
	var cryptoErr *CryptoError
	if !errors.As(wrapped, &cryptoErr) {
		t.Error("CryptoError not found through an outer wrap")
	}
}
