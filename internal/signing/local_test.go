package signing

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"testing"
	"time"

	"go.mozilla.org/pkcs7"

	"github.com/brightcard/walletpass/internal/crypto"
)

// one key/cert pair per test binary; RSA generation is slow
var (
	testSigningKey  *rsa.PrivateKey
	testSigningCert *x509.Certificate
)

func signingFixtures(t *testing.T) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	if testSigningKey == nil {
		key, err := crypto.GenerateRSAKeyPair(2048)
		if err != nil {
			t.Fatalf("could not create RSA key: %v", err)
		}

		derBytes, err := crypto.GenerateSelfSignedCert(key, "signing test", "walletpass", 24*time.Hour)
		if err != nil {
			t.Fatalf("could not create certificate: %v", err)
		}

		cert, err := x509.ParseCertificate(derBytes)
		if err != nil {
			t.Fatalf("could not parse certificate: %v", err)
		}

		testSigningKey = key
		testSigningCert = cert
	}

	return testSigningKey, testSigningCert
}

func TestLocalSignerRoundTrip(t *testing.T) {
	key, cert := signingFixtures(t)

	signer, err := NewLocalSigner(key, cert)
	if err != nil {
		t.Fatalf("NewLocalSigner() error = %v", err)
	}

	manifest := []byte(`{"pass.json":"2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"}`)

	signature, err := signer.Sign(context.Background(), manifest)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(signature) == 0 {
		t.Fatal("Sign() returned empty signature")
	}

	p7, err := pkcs7.Parse(signature)
	if err != nil {
		t.Fatalf("signature is not a parseable PKCS#7 structure: %v", err)
	}

	// the signature is detached, so the verifier supplies the signed content
	p7.Content = manifest
	if err := p7.Verify(); err != nil {
		t.Errorf("signature does not verify against the manifest: %v", err)
	}

	// a detached signature must not embed the manifest bytes
	freshParse, err := pkcs7.Parse(signature)
	if err != nil {
		t.Fatalf("could not reparse signature: %v", err)
	}
	if len(freshParse.Content) != 0 {
		t.Error("signature embeds the manifest content, want detached")
	}
}

func TestLocalSignerRejectsTamperedManifest(t *testing.T) {
	key, cert := signingFixtures(t)

	signer, err := NewLocalSigner(key, cert)
	if err != nil {
		t.Fatalf("NewLocalSigner() error = %v", err)
	}

	signature, err := signer.Sign(context.Background(), []byte("original manifest"))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	p7, err := pkcs7.Parse(signature)
	if err != nil {
		t.Fatalf("could not parse signature: %v", err)
	}

	p7.Content = []byte("tampered manifest")
	if err := p7.Verify(); err == nil {
		t.Error("signature verified against tampered content")
	}
}

func TestNewLocalSignerRejectsMismatchedCert(t *testing.T) {
	_, cert := signingFixtures(t)

	otherKey, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("could not create RSA key: %v", err)
	}

	if _, err := NewLocalSigner(otherKey, cert); err == nil {
		t.Error("NewLocalSigner() should reject a certificate that does not match the key")
	}
}

func TestLocalSignerRejectsEmptyManifest(t *testing.T) {
	key, cert := signingFixtures(t)

	signer, err := NewLocalSigner(key, cert)
	if err != nil {
		t.Fatalf("NewLocalSigner() error = %v", err)
	}

	if _, err := signer.Sign(context.Background(), nil); err == nil {
		t.Error("Sign() should reject empty manifest bytes")
	}
}
