package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brightcard/walletpass/internal/issuer"
	"github.com/brightcard/walletpass/internal/services"
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue <customer-name> <points>",
	Short: "Issue a loyalty pass",
	Long: `Run the full issuance pipeline for one customer and print the results.

Produces the save-to-wallet token and, unless --format restricts the output,
signs and uploads the pass bundle.

Example:
  walletpass issue "Alice" 150 --format token`,
	Args: cobra.ExactArgs(2),
	RunE: runIssue,
}

var issueFormats []string

func init() {
	rootCmd.AddCommand(issueCmd)

	issueCmd.Flags().StringSliceVar(&issueFormats, "format", nil,
		"Output formats to produce: token, bundle (default: both)")
}

func runIssue(cmd *cobra.Command, args []string) error {
	var points int
	if _, err := fmt.Sscanf(args[1], "%d", &points); err != nil {
		return fmt.Errorf("invalid points value %q", args[1])
	}

	formats := make([]issuer.Format, 0, len(issueFormats))
	for _, name := range issueFormats {
		switch issuer.Format(name) {
		case issuer.FormatToken, issuer.FormatBundle:
			formats = append(formats, issuer.Format(name))
		default:
			return fmt.Errorf("unknown format %q", name)
		}
	}

	svc, _, err := services.NewIssuer(cfg, appLogger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuance, err := svc.Issue(ctx, issuer.Request{
		CustomerName: args[0],
		Points:       points,
		Formats:      formats,
	})
	if err != nil {
		appLogger.Error("issuance failed", slog.String("error", err.Error()))
		return err
	}

	fmt.Printf("card ID:   %s\n", issuance.Card.ID)
	fmt.Printf("tier:      %s\n", issuance.Card.Tier)
	if issuance.SaveToken != "" {
		fmt.Printf("save URL:  %s\n", issuance.SaveURL)
		fmt.Printf("token:     %s\n", issuance.SaveToken)
	}
	if issuance.BundleURL != "" {
		fmt.Printf("bundle:    %s\n", issuance.BundleURL)
	}

	return nil
}
