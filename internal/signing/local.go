package signing

// local.go builds the detached PKCS#7 SignedData container in-process.
//
// The container has a fixed nesting - content type, digest algorithm set,
// signing certificate, and a signer-info carrying the issuer/serial of that
// certificate plus the RSA-encrypted digest. A malformed container is
// silently rejected by the receiving wallet, so the assembly is delegated to
// the go.mozilla.org/pkcs7 library rather than hand-built ASN.1 (the original
// implementation hand-rolled this and it was its highest-risk code path).

import (
	"context"
	"crypto/rsa"
	"crypto/x509"

	"go.mozilla.org/pkcs7"

	"github.com/brightcard/walletpass/internal/crypto"
)

// LocalSigner signs manifests with the configured key and certificate.
type LocalSigner struct {
	privateKey *rsa.PrivateKey
	cert       *x509.Certificate
}

// NewLocalSigner creates a local manifest signer.
// The certificate's public key must match the private key - a mismatch would
// produce signatures that fail to verify, so it is rejected here at
// construction time rather than discovered per artifact.
func NewLocalSigner(privateKey *rsa.PrivateKey, cert *x509.Certificate) (*LocalSigner, error) {
	if privateKey == nil {
		return nil, crypto.NewSigningError("private key is nil")
	}
	if cert == nil {
		return nil, crypto.NewSigningError("signing certificate is nil")
	}

	certKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, crypto.NewSigningError("signing certificate does not carry an RSA public key")
	}
	if certKey.N.Cmp(privateKey.N) != 0 || certKey.E != privateKey.E {
		return nil, crypto.NewSigningError("signing certificate does not match the private key")
	}

	return &LocalSigner{privateKey: privateKey, cert: cert}, nil
}

// Sign returns a detached PKCS#7 signature over manifestBytes.
// Local signing is CPU-bound and never blocks on IO; the context parameter
// exists to satisfy the ManifestSigner contract shared with RemoteSigner.
func (s *LocalSigner) Sign(_ context.Context, manifestBytes []byte) ([]byte, error) {
	if len(manifestBytes) == 0 {
		return nil, crypto.NewSigningError("manifest bytes are empty")
	}

	signedData, err := pkcs7.NewSignedData(manifestBytes)
	if err != nil {
		return nil, crypto.WrapSigningError(err, "failed to initialize SignedData")
	}

	signedData.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signedData.AddSigner(s.cert, s.privateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, crypto.WrapSigningError(err, "failed to add signer")
	}

	// the signature must not embed the manifest - the manifest travels as its
	// own archive entry and the wallet verifies the detached signature against it
	signedData.Detach()

	signature, err := signedData.Finish()
	if err != nil {
		return nil, crypto.WrapSigningError(err, "failed to finalize signature")
	}

	return signature, nil
}
