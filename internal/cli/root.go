package cli

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/logger"
	"github.com/brightcard/walletpass/internal/version"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "walletpass",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Loyalty pass issuance CLI",
	Long:              `Issue, inspect and verify signed loyalty wallet passes`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// keygen and verify work offline and do not need service configuration
		for c := cmd; c != nil; c = c.Parent() {
			if c.Name() == "keygen" || c.Name() == "verify" {
				return nil
			}
		}

		var err error
		cfg, err = config.NewServerConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		return nil
	},
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
