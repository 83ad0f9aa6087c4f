// this file contains functions to load and manage the RSA signing key material
//
// The original pass issuer hand-rolled the ASN.1 walk over the PKCS#1 key
// container and extracted the modulus, private exponent and prime factors by
// positional index. That approach is correctness-critical and brittle, so this
// implementation parses keys with crypto/x509 instead: any structural
// deviation surfaces as a key_parse error rather than a silently wrong key.
//
// Both PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") PEM envelopes are
// accepted. Keys can also be saved/loaded in JWK format for distribution via
// /.well-known/jwks.json.
//
// The parsed *rsa.PrivateKey exposes the numeric key material (N, D, Primes)
// and is treated as process-wide read-only configuration. It must never be
// logged.
package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

// minimum accepted RSA modulus size in bits
const minRSABits = 2048

// ParseRSAPrivateKeyPEM parses an RSA private key from a PEM-wrapped base64
// block (PKCS#1 or PKCS#8 container).
//
// The returned key is validated (rsa.PrivateKey.Validate) so a structurally
// decodable but internally inconsistent key is still rejected - a
// partially-populated key must never escape this function.
func ParseRSAPrivateKeyPEM(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, NewKeyParseError("failed to decode PEM block")
	}

	var privateKey *rsa.PrivateKey

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyParseError(err, "failed to parse PKCS#1 private key")
		}
		privateKey = key

	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, WrapKeyParseError(err, "failed to parse PKCS#8 private key")
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, NewKeyParseError(fmt.Sprintf("key is not an RSA private key (got %T)", key))
		}
		privateKey = rsaKey

	default:
		return nil, NewKeyParseError(fmt.Sprintf("unexpected PEM block type: %s", block.Type))
	}

	if err := privateKey.Validate(); err != nil {
		return nil, WrapKeyParseError(err, "key material failed validation")
	}

	if privateKey.N.BitLen() < minRSABits {
		return nil, NewKeyParseError(fmt.Sprintf("key size must be at least %d bits, got %d", minRSABits, privateKey.N.BitLen()))
	}

	return privateKey, nil
}

// ReadRSAPrivateKeyFromPEMFile loads an RSA private key from a PEM file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.pem")
func ReadRSAPrivateKeyFromPEMFile(baseDir, filename string) (*rsa.PrivateKey, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	pemData, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseRSAPrivateKeyPEM(pemData)
}

// SaveRSAPrivateKeyToPEMFile saves an RSA private key to a PEM file in PKCS#8 format
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "private.pem")
func SaveRSAPrivateKeyToPEMFile(privateKey *rsa.PrivateKey, baseDir, filename string) error {
	// Marshal to PKCS#8 format (more modern than PKCS#1)
	privBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privBytes,
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	file, err := root.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := pem.Encode(file, pemBlock); err != nil {
		return fmt.Errorf("failed to encode PEM: %w", err)
	}

	return nil
}

// SaveRSAPublicKeyToJWKFile saves an RSA public key to a JWK file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "public.jwk")
func SaveRSAPublicKeyToJWKFile(publicKey *rsa.PublicKey, keyID, baseDir, filename string) error {
	jwkKey, err := RSAPublicKeyToJWK(publicKey, keyID)
	if err != nil {
		return fmt.Errorf("failed to create JWK: %w", err)
	}

	jwkSet := jwk.NewSet()
	jwkSet.AddKey(jwkKey)

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JWK set: %w", err)
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	if err := root.WriteFile(filename, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ReadCertificateFromPEMFile reads a single X.509 certificate from a PEM file.
// If the file contains multiple certificates, only the first one is returned (this will be the leaf cert).
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./certs")
//   - filename: The filename within the base directory (e.g., "cert.pem")
func ReadCertificateFromPEMFile(baseDir, filename string) (*x509.Certificate, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	pemData, err := root.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("PEM block is not a certificate (type: %s)", block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return cert, nil
}

// SaveCertificateToPEMFile saves an X.509 certificate (DER bytes) to a PEM file
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./certs")
//   - filename: The filename within the base directory (e.g., "cert.pem")
func SaveCertificateToPEMFile(derBytes []byte, baseDir, filename string) error {
	pemBlock := &pem.Block{
		Type:  "CERTIFICATE",
		Bytes: derBytes,
	}

	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return fmt.Errorf("failed to open root directory %s: %w", baseDir, err)
	}
	defer root.Close()

	file, err := root.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := pem.Encode(file, pemBlock); err != nil {
		return fmt.Errorf("failed to encode PEM: %w", err)
	}

	return nil
}
