package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brightcard/walletpass/internal/bundle"
	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/spf13/cobra"
	"go.mozilla.org/pkcs7"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify issued pass artifacts",
	Long:  `Verify save tokens and signed pass bundles produced by this service`,
}

var verifyTokenCmd = &cobra.Command{
	Use:   "token <compact-token>",
	Short: "Verify a save token signature",
	Long: `Verify a compact save token against the issuer's public key.

Prints the claims if the signature checks out.

Example:
  walletpass verify token "eyJ..." --jwk ./keys/issuer.public.jwk`,
	Args: cobra.ExactArgs(1),
	RunE: runVerifyToken,
}

var verifyBundleCmd = &cobra.Command{
	Use:   "bundle <pkpass-file>",
	Short: "Verify a signed pass bundle",
	Long: `Verify a pass bundle archive.

Checks that every manifest entry matches its file digest and that the
detached signature verifies against the bundled manifest.

Example:
  walletpass verify bundle ./out/card.pkpass`,
	Args: cobra.ExactArgs(1),
	RunE: runVerifyBundle,
}

var verifyJWKPath string

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.AddCommand(verifyTokenCmd)
	verifyCmd.AddCommand(verifyBundleCmd)

	verifyTokenCmd.Flags().StringVar(&verifyJWKPath, "jwk", "", "Path to the issuer public JWK file (required)")
	verifyTokenCmd.MarkFlagRequired("jwk")
}

func runVerifyToken(cmd *cobra.Command, args []string) error {
	token := args[0]

	header, err := crypto.ParseHeader(token)
	if err != nil {
		return fmt.Errorf("malformed token: %w", err)
	}

	publicKey, err := crypto.ReadRSAPublicKeyFromJWKFile(
		filepath.Dir(verifyJWKPath), filepath.Base(verifyJWKPath))
	if err != nil {
		return err
	}

	payload, err := crypto.VerifyCompact(token, publicKey)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	fmt.Printf("alg:    %s\n", header.Algorithm)
	fmt.Printf("typ:    %s\n", header.Type)
	fmt.Printf("claims: %s\n", payload)
	return nil
}

func runVerifyBundle(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	files, err := bundle.Unpack(data)
	if err != nil {
		return fmt.Errorf("failed to unpack bundle: %w", err)
	}

	manifestBytes, ok := files[bundle.ManifestFile]
	if !ok {
		return fmt.Errorf("bundle has no %s", bundle.ManifestFile)
	}

	manifest, err := bundle.ParseManifest(manifestBytes)
	if err != nil {
		return err
	}

	hashed := make(map[string][]byte)
	for name, content := range files {
		if name == bundle.ManifestFile || name == bundle.SignatureFile {
			continue
		}
		hashed[name] = content
	}

	if err := manifest.Verify(hashed); err != nil {
		return fmt.Errorf("manifest check failed: %w", err)
	}

	signature, ok := files[bundle.SignatureFile]
	if !ok {
		return fmt.Errorf("bundle has no %s", bundle.SignatureFile)
	}

	p7, err := pkcs7.Parse(signature)
	if err != nil {
		return fmt.Errorf("failed to parse signature: %w", err)
	}

	// the signature is detached, so the signed content is supplied here
	p7.Content = manifestBytes
	if err := p7.Verify(); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}

	fmt.Printf("files:     %d\n", len(files))
	fmt.Printf("manifest:  %d entries, all digests match\n", len(manifest))
	fmt.Printf("signature: valid\n")
	return nil
}
