// this file contains the content-digest functions used by the pass bundle pipeline
//
// pass bundle manifests record a SHA-1 digest per packaged file - SHA-1 is
// what the consuming wallet app verifies, so it is not negotiable here. The
// digests are content-integrity checksums inside a signed manifest, not a
// standalone security mechanism: the manifest itself is covered by the
// detached PKCS#7 signature.
package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
)

// SHA1Hex calculates the SHA-1 digest of data and returns it as a lowercase hex string
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// SHA256Hex calculates the SHA-256 digest of data and returns it as a lowercase hex string
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifySHA1 verifies that data matches the expected SHA-1 digest
func VerifySHA1(data []byte, expected string) bool {
	return SHA1Hex(data) == expected
}
