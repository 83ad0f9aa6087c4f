// signing produces the detached signature over a pass bundle manifest.
//
// Two interchangeable strategies satisfy the ManifestSigner contract:
//
//   - LocalSigner builds the PKCS#7 SignedData container in-process using the
//     configured private key and signing certificate
//   - RemoteSigner delegates to an HTTP signing endpoint (used where the
//     signing certificate cannot leave a dedicated signing host)
//
// Both return DER signature bytes or a structured signing error. There is no
// placeholder fallback: a signing failure aborts the artifact.
package signing

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"path/filepath"

	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/crypto"
)

// ManifestSigner produces a detached signature over manifest bytes.
type ManifestSigner interface {
	// Sign returns the DER bytes of a detached signature over manifestBytes.
	// implementations return a crypto error with code signing on failure.
	Sign(ctx context.Context, manifestBytes []byte) ([]byte, error)
}

// NewManifestSigner selects the signing strategy from configuration.
func NewManifestSigner(cfg *config.ServerEnvironment, privateKey *rsa.PrivateKey) (ManifestSigner, error) {
	switch cfg.SignerMode {
	case config.SignerModeLocal:
		cert, err := loadSigningCert(cfg.SigningCertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load signing certificate: %w", err)
		}
		return NewLocalSigner(privateKey, cert)

	case config.SignerModeRemote:
		return NewRemoteSigner(cfg.RemoteSignerURL, cfg.RemoteSignerTimeout, cfg.RemoteSignerRetries), nil

	default:
		return nil, fmt.Errorf("unknown signer mode: %s", cfg.SignerMode)
	}
}

func loadSigningCert(path string) (*x509.Certificate, error) {
	return crypto.ReadCertificateFromPEMFile(filepath.Dir(path), filepath.Base(path))
}
