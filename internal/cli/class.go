package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/brightcard/walletpass/internal/classes"
	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/spf13/cobra"
)

var classCmd = &cobra.Command{
	Use:   "class",
	Short: "Manage the loyalty class",
	Long:  `Manage the wallet loyalty class that issued passes reference`,
}

var classEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Ensure the loyalty class exists",
	Long: `Create the configured loyalty class at the wallet service if it does not
already exist. Requires CLASS_ENDPOINT_URL and TOKEN_ENDPOINT_URL to be set.`,
	RunE: runClassEnsure,
}

var (
	classProgramName     string
	classBackgroundColor string
)

func init() {
	rootCmd.AddCommand(classCmd)
	classCmd.AddCommand(classEnsureCmd)

	classEnsureCmd.Flags().StringVar(&classProgramName, "program-name", "", "Loyalty program display name (default: organization name)")
	classEnsureCmd.Flags().StringVar(&classBackgroundColor, "background", "#1a73e8", "Class background color (hex)")
}

func runClassEnsure(cmd *cobra.Command, args []string) error {
	if cfg.ClassEndpointURL == "" {
		return fmt.Errorf("CLASS_ENDPOINT_URL is not configured")
	}

	privateKey, err := crypto.ReadRSAPrivateKeyFromPEMFile(
		filepath.Dir(cfg.SigningKeyPath), filepath.Base(cfg.SigningKeyPath))
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	programName := classProgramName
	if programName == "" {
		programName = cfg.OrganizationName
	}

	client := classes.NewClient(cfg, privateKey)

	outcome, err := client.EnsureClass(cmd.Context(), classes.LoyaltyClass{
		ID:                 cfg.LoyaltyClassID,
		IssuerName:         cfg.OrganizationName,
		ProgramName:        programName,
		HexBackgroundColor: classBackgroundColor,
	})
	if err != nil {
		appLogger.Error("class provisioning failed", slog.String("error", err.Error()))
		return err
	}

	fmt.Printf("class %s: %s\n", cfg.LoyaltyClassID, outcome)
	return nil
}
