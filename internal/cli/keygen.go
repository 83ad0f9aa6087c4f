package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// file naming convention - <prefix>.key.pem, <prefix>.cert.pem, <prefix>.public.jwk
const (
	privateKeyFileNameFormat = "%s.key.pem"
	certFileNameFormat       = "%s.cert.pem"
	publicJWKFileNameFormat  = "%s.public.jwk"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA signing key and self-signed certificate",
	Long: `Generate a new RSA key pair for signing passes.

The private key signs save tokens and pass bundle manifests. The self-signed
certificate pairs with the key for local bundle signing. The public JWK is
what verifiers fetch from the JWKS endpoint.

Example:
  walletpass keygen --size 2048 --output ./keys --prefix issuer`,
	RunE: runKeygen,
}

var (
	keySize      int
	keyOutputDir string
	keyPrefix    string
	keyID        string
	certCN       string
	certOrg      string
	certYears    int
)

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().IntVar(&keySize, "size", 2048, "RSA key size in bits (2048 or 4096)")
	keygenCmd.Flags().StringVar(&keyOutputDir, "output", "./keys", "Output directory for key files")
	keygenCmd.Flags().StringVar(&keyPrefix, "prefix", "issuer", "File name prefix for generated files")
	keygenCmd.Flags().StringVar(&keyID, "key-id", "", "Key ID for the JWK (default: generated UUID)")
	keygenCmd.Flags().StringVar(&certCN, "cn", "walletpass signing", "Certificate common name")
	keygenCmd.Flags().StringVar(&certOrg, "org", "walletpass", "Certificate organization")
	keygenCmd.Flags().IntVar(&certYears, "years", 1, "Certificate validity in years")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if keySize != 2048 && keySize != 4096 {
		return fmt.Errorf("invalid RSA key size: %d (must be 2048 or 4096)", keySize)
	}

	if keyID == "" {
		keyID = uuid.NewString()
	}

	if _, err := os.Stat(keyOutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(keyOutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	privateKey, err := crypto.GenerateRSAKeyPair(keySize)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	derBytes, err := crypto.GenerateSelfSignedCert(privateKey, certCN, certOrg,
		time.Duration(certYears)*365*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to generate certificate: %w", err)
	}

	keyFile := fmt.Sprintf(privateKeyFileNameFormat, keyPrefix)
	certFile := fmt.Sprintf(certFileNameFormat, keyPrefix)
	jwkFile := fmt.Sprintf(publicJWKFileNameFormat, keyPrefix)

	if err := crypto.SaveRSAPrivateKeyToPEMFile(privateKey, keyOutputDir, keyFile); err != nil {
		return fmt.Errorf("failed to save private key: %w", err)
	}

	if err := crypto.SaveCertificateToPEMFile(derBytes, keyOutputDir, certFile); err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}

	if err := crypto.SaveRSAPublicKeyToJWKFile(&privateKey.PublicKey, keyID, keyOutputDir, jwkFile); err != nil {
		return fmt.Errorf("failed to save public JWK: %w", err)
	}

	fmt.Printf("key ID:      %s\n", keyID)
	fmt.Printf("private key: %s/%s\n", keyOutputDir, keyFile)
	fmt.Printf("certificate: %s/%s\n", keyOutputDir, certFile)
	fmt.Printf("public JWK:  %s/%s\n", keyOutputDir, jwkFile)
	fmt.Println("keep the private key secure and out of version control")

	return nil
}
