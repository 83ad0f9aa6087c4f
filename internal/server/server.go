// package server wires the issuance pipeline into an HTTP service.
package server

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/brightcard/walletpass/internal/issuer"
	"github.com/brightcard/walletpass/internal/server/handlers"
	"github.com/brightcard/walletpass/internal/server/middleware"
)

const serviceName = "walletpass-server"

type Server struct {
	config *config.ServerEnvironment
	logger *slog.Logger
	router *chi.Mux
	issuer *issuer.Issuer
}

// NewServer assembles the router from an already-constructed issuer.
//
// The public half of publicKey is exposed on /.well-known/jwks.json so that
// wallet services and integrators can verify save tokens.
func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	svc *issuer.Issuer,
	publicKey *rsa.PublicKey,
) (*Server, error) {
	server := &Server{
		config: cfg,
		logger: logger,
		router: chi.NewRouter(),
		issuer: svc,
	}

	jwkSet, err := crypto.PublicJWKSet(publicKey, cfg.SigningKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to build JWK set: %w", err)
	}

	server.setupMiddleware()
	server.registerRoutes(jwkSet)

	return server, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst, s.logger))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))
}

func (s *Server) registerRoutes(jwkSet jwk.Set) {
	s.router.Get("/health", handlers.HandleHealth)
	s.router.Get("/version", handlers.HandleVersion(serviceName))

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/passes", handlers.HandleIssuePass(s.issuer, s.logger))
	})

	s.router.Get("/.well-known/jwks.json", handlers.HandleJWKS(jwkSet))

	// artifacts written by the filesystem store are served back under the
	// same prefix the store uses to build public URLs
	if s.config.StoreBackend == config.StoreBackendFS {
		fileServer := http.StripPrefix("/artifacts/", http.FileServer(http.Dir(s.config.StoreDir)))
		s.router.Get("/artifacts/*", fileServer.ServeHTTP)
	}
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
