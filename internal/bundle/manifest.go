// bundle implements the signed multi-file pass bundle: a ZIP archive holding
// the pass document, a content-hash manifest, a detached signature over the
// manifest, and a fixed image set.
//
// # bundle production flow
//
//	i)   Build the manifest: SHA-1 digest of every file that will be packaged
//	ii)  Serialize the manifest to canonical JSON (the exact bytes that get signed)
//	iii) Sign the manifest bytes (see internal/signing)
//	iv)  Validate and pack everything into the ZIP archive
//
// steps are strictly ordered because each depends on the exact bytes of the
// previous one: the signature covers the manifest bytes and the manifest
// covers the bytes of every packaged file.
package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/brightcard/walletpass/internal/crypto"
)

// fixed entry names inside a pass bundle
const (
	DocumentFile  = "pass.json"
	ManifestFile  = "manifest.json"
	SignatureFile = "signature"
)

// RequiredImages are the image files every valid bundle must contain.
var RequiredImages = []string{"icon.png", "icon@2x.png", "logo.png", "logo@2x.png"}

// OptionalImages may additionally be present.
var OptionalImages = []string{"icon@3x.png", "logo@3x.png"}

// Manifest maps a filename to the lowercase hex SHA-1 digest of that file's bytes.
//
// Invariant (enforced by Pack, not here): the entry set is in 1:1
// correspondence with the files physically present in the final archive,
// excluding the manifest itself and the signature.
type Manifest map[string]string

// BuildManifest computes the digest table over the supplied files.
// Hashing is content-addressed and order-independent.
func BuildManifest(files map[string][]byte) Manifest {
	m := make(Manifest, len(files))
	for name, data := range files {
		m[name] = crypto.SHA1Hex(data)
	}
	return m
}

// Serialize returns the canonical JSON bytes of the manifest.
//
// The signature is computed over these exact bytes, so serialization must be
// byte-for-byte deterministic - the JSON is passed through RFC 8785
// canonicalization to guarantee that regardless of map iteration order.
func (m Manifest) Serialize() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	canonical, err := crypto.CanonicalizeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize manifest: %w", err)
	}

	return canonical, nil
}

// ParseManifest decodes manifest bytes back into the digest table.
// used by verification and tests.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, WrapValidationError(err, "could not unmarshal manifest")
	}
	return m, nil
}

// Verify checks every file against its manifest entry and reports the first mismatch.
func (m Manifest) Verify(files map[string][]byte) error {
	if len(m) != len(files) {
		return NewValidationError(fmt.Sprintf("manifest has %d entries for %d files", len(m), len(files)))
	}
	for name, data := range files {
		digest, ok := m[name]
		if !ok {
			return NewValidationError("manifest is missing an entry for " + name)
		}
		if !crypto.VerifySHA1(data, digest) {
			return NewValidationError("manifest digest mismatch for " + name)
		}
	}
	return nil
}
