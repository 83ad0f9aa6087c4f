package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brightcard/walletpass/internal/classes"
	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/logger"
	"github.com/brightcard/walletpass/internal/server"
	"github.com/brightcard/walletpass/internal/services"
	"github.com/brightcard/walletpass/internal/version"
	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:   "walletpass-server",
		Short: "Loyalty pass issuance server",
		Long:  `walletpass-server issues signed loyalty wallet passes over HTTP`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("SIGNER_MODE", cfg.SignerMode),
		slog.String("STORE_BACKEND", cfg.StoreBackend),
		slog.String("ISSUER_ID", cfg.IssuerID),
		slog.String("LOYALTY_CLASS_ID", cfg.LoyaltyClassID),
		slog.String("ASSETS_DIR", cfg.AssetsDir),
	)

	svc, privateKey, err := services.NewIssuer(cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to build issuance pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// provision the loyalty class before accepting traffic so issued passes
	// never reference a class that does not exist
	if cfg.ClassEndpointURL != "" {
		classCtx, classCancel := context.WithTimeout(ctx, cfg.ClassTimeout)
		client := classes.NewClient(cfg, privateKey)
		outcome, err := client.EnsureClass(classCtx, classes.LoyaltyClass{
			ID:          cfg.LoyaltyClassID,
			IssuerName:  cfg.OrganizationName,
			ProgramName: cfg.OrganizationName,
		})
		classCancel()
		if err != nil {
			appLogger.Error("Failed to provision loyalty class", slog.String("error", err.Error()))
			os.Exit(1)
		}
		appLogger.Info("loyalty class ready",
			slog.String("class_id", cfg.LoyaltyClassID),
			slog.String("outcome", string(outcome)))
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv, err := server.NewServer(cfg, appLogger, svc, &privateKey.PublicKey)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
