package crypto

import (
	"testing"
)

func TestRSAPublicKeyToJWK(t *testing.T) {
	key := signingTestKey(t)

	jwkKey, err := RSAPublicKeyToJWK(&key.PublicKey, "key-1")
	if err != nil {
		t.Fatalf("RSAPublicKeyToJWK() error = %v", err)
	}

	kid, ok := jwkKey.KeyID()
	if !ok || kid != "key-1" {
		t.Errorf("key ID = %q, want %q", kid, "key-1")
	}

	if _, err := RSAPublicKeyToJWK(nil, "key-1"); err == nil {
		t.Error("nil public key should be rejected")
	}
	if _, err := RSAPublicKeyToJWK(&key.PublicKey, ""); err == nil {
		t.Error("empty key ID should be rejected")
	}
}

func TestPublicJWKSet(t *testing.T) {
	key := signingTestKey(t)

	set, err := PublicJWKSet(&key.PublicKey, "key-1")
	if err != nil {
		t.Fatalf("PublicJWKSet() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("JWK set has %d keys, want 1", set.Len())
	}
}

func TestJWKFileRoundTrip(t *testing.T) {
	key := signingTestKey(t)
	tmpDir := t.TempDir()

	if err := SaveRSAPublicKeyToJWKFile(&key.PublicKey, "key-1", tmpDir, "issuer.public.jwk"); err != nil {
		t.Fatalf("SaveRSAPublicKeyToJWKFile() error = %v", err)
	}

	loaded, err := ReadRSAPublicKeyFromJWKFile(tmpDir, "issuer.public.jwk")
	if err != nil {
		t.Fatalf("ReadRSAPublicKeyFromJWKFile() error = %v", err)
	}

	if loaded.N.Cmp(key.N) != 0 || loaded.E != key.E {
		t.Error("loaded public key does not match the saved key")
	}
}

func TestThumbprint(t *testing.T) {
	key := signingTestKey(t)

	first, err := Thumbprint(&key.PublicKey)
	if err != nil {
		t.Fatalf("Thumbprint() error = %v", err)
	}
	second, err := Thumbprint(&key.PublicKey)
	if err != nil {
		t.Fatalf("Thumbprint() error = %v", err)
	}

	if first == "" || first != second {
		t.Errorf("thumbprint not stable: %q vs %q", first, second)
	}
}
