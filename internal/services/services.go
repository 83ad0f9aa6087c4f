package services

// services wires up the external collaborators used by the walletpass server
// (bundle signing, artifact storage, class management).

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/brightcard/walletpass/internal/classes"
	"github.com/brightcard/walletpass/internal/config"
	"github.com/brightcard/walletpass/internal/crypto"
	"github.com/brightcard/walletpass/internal/issuer"
	"github.com/brightcard/walletpass/internal/pass"
	"github.com/brightcard/walletpass/internal/signing"
	"github.com/brightcard/walletpass/internal/store"
)

// Services aggregates all external service integrations used by the walletpass server.
type Services struct {
	Signer  signing.ManifestSigner
	Store   store.ObjectStore
	Classes *classes.Client
}

// NewServices creates service implementations based on configuration.
// This is the single entry point for initializing all external service integrations.
func NewServices(cfg *config.ServerEnvironment, privateKey *rsa.PrivateKey) (*Services, error) {
	signer, err := signing.NewManifestSigner(cfg, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest signer: %w", err)
	}

	objectStore, err := newObjectStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}

	s := &Services{
		Signer: signer,
		Store:  store.WithRetry(objectStore, cfg.StoreRetries),
	}

	// class management is optional - without an endpoint the server issues
	// passes against a class assumed to exist
	if cfg.ClassEndpointURL != "" {
		s.Classes = classes.NewClient(cfg, privateKey)
	}

	return s, nil
}

// newObjectStore selects the storage backend from configuration.
func newObjectStore(cfg *config.ServerEnvironment) (store.ObjectStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFS:
		return store.NewFSStore(cfg.StoreDir, cfg.StorePublicBaseURL)
	case config.StoreBackendHTTP:
		return store.NewHTTPStore(cfg.StoreUploadURL, cfg.StorePublicBaseURL, cfg.StoreTimeout), nil
	case config.StoreBackendMemory:
		return store.NewMemoryStore(cfg.StorePublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// NewIssuer loads the signing key and bundle assets and assembles the full
// issuance pipeline. Used by both the server and the CLI.
func NewIssuer(cfg *config.ServerEnvironment, logger *slog.Logger) (*issuer.Issuer, *rsa.PrivateKey, error) {
	privateKey, err := crypto.ReadRSAPrivateKeyFromPEMFile(
		filepath.Dir(cfg.SigningKeyPath), filepath.Base(cfg.SigningKeyPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	svcs, err := NewServices(cfg, privateKey)
	if err != nil {
		return nil, nil, err
	}

	images, err := issuer.LoadImages(cfg.AssetsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bundle images: %w", err)
	}

	svc, err := issuer.New(issuer.Config{
		IssuerID: cfg.IssuerID,
		ClassID:  cfg.LoyaltyClassID,
		Template: pass.Template{
			PassTypeIdentifier: cfg.PassTypeIdentifier,
			TeamIdentifier:     cfg.TeamIdentifier,
			OrganizationName:   cfg.OrganizationName,
		},
		PrivateKey: privateKey,
		Signer:     svcs.Signer,
		Store:      svcs.Store,
		Images:     images,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create issuer: %w", err)
	}

	return svc, privateKey, nil
}
