// JWK (JSON Web Key) helpers for the walletpass service
//
// these functions convert RSA public keys to JWK format for distribution via
// /.well-known/jwks.json, so save-to-wallet consumers can verify compact
// tokens issued by this service.
// Reference: https://datatracker.ietf.org/doc/html/rfc7517 (JSON Web Key standard)
package crypto

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// RSAPublicKeyToJWK converts a RSA public key to JWK format
func RSAPublicKeyToJWK(publicKey *rsa.PublicKey, keyID string) (jwk.Key, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	if keyID == "" {
		return nil, fmt.Errorf("keyID is required")
	}

	// create the jwk key
	key, err := jwk.Import(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK from RSA public key: %w", err)
	}

	// Set key ID
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, fmt.Errorf("failed to set key ID: %w", err)
	}

	// Set algorithm
	if err := key.Set(jwk.AlgorithmKey, jwa.RS256()); err != nil {
		return nil, fmt.Errorf("failed to set algorithm: %w", err)
	}

	// Set key usage
	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("failed to set key usage: %w", err)
	}

	return key, nil
}

// PublicJWKSet builds a JWK set containing the service's RS256 public key.
// this is what gets served at /.well-known/jwks.json
func PublicJWKSet(publicKey *rsa.PublicKey, keyID string) (jwk.Set, error) {
	key, err := RSAPublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		return nil, fmt.Errorf("failed to add key to JWK set: %w", err)
	}

	return set, nil
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of a public key,
// base64url encoded. Useful as a stable key ID.
func Thumbprint(publicKey *rsa.PublicKey) (string, error) {
	key, err := jwk.Import(publicKey)
	if err != nil {
		return "", fmt.Errorf("failed to create JWK from RSA public key: %w", err)
	}

	thumbprint, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute thumbprint: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

// ReadRSAPublicKeyFromJWKFile reads the first RSA public key from a JWK set file.
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "issuer.public.jwk")
func ReadRSAPublicKeyFromJWKFile(baseDir, filename string) (*rsa.PublicKey, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	data, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read JWK file: %w", err)
	}

	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWK set: %w", err)
	}

	key, ok := set.Key(0)
	if !ok {
		return nil, fmt.Errorf("JWK set is empty")
	}

	var publicKey rsa.PublicKey
	if err := jwk.Export(key, &publicKey); err != nil {
		return nil, fmt.Errorf("key is not an RSA public key: %w", err)
	}

	return &publicKey, nil
}
