package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

// Signer modes for the pass bundle signature (see internal/signing)
const (
	SignerModeLocal  = "local"
	SignerModeRemote = "remote"
)

// Storage backends for produced artifacts (see internal/store)
const (
	StoreBackendFS     = "fs"
	StoreBackendHTTP   = "http"
	StoreBackendMemory = "memory"
)

// Policies for an already-exists response from the loyalty class endpoint.
// The upstream endpoint reports HTTP 409 when the class was created previously -
// `idempotent` treats this as a successful outcome, `conflict` surfaces it as an error.
const (
	ClassConflictIdempotent = "idempotent"
	ClassConflictError      = "conflict"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=15s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestSize        int64         `env:"MAX_REQUEST_SIZE,default=1048576"`

	// signing credentials
	//
	// SigningKeyPath points at the RS256 private key (PEM, PKCS#1 or PKCS#8).
	// SigningCertPath is the signing certificate embedded in pass bundle
	// signatures - required when SIGNER_MODE=local.
	SigningKeyPath  string `env:"SIGNING_KEY_PATH,required=true"`
	SigningCertPath string `env:"SIGNING_CERT_PATH"`
	SigningKeyID    string `env:"SIGNING_KEY_ID,default=walletpass-signing-key"`

	// IssuerID identifies the signer in compact tokens (the `iss` claim),
	// e.g. a service account email.
	IssuerID string `env:"ISSUER_ID,required=true"`

	// pass template settings
	PassTypeIdentifier string `env:"PASS_TYPE_IDENTIFIER,required=true"`
	TeamIdentifier     string `env:"TEAM_IDENTIFIER,required=true"`
	OrganizationName   string `env:"ORGANIZATION_NAME,default=Brightcard"`
	LoyaltyClassID     string `env:"LOYALTY_CLASS_ID,required=true"`
	AssetsDir          string `env:"ASSETS_DIR,default=./assets"`

	// pass bundle signing
	SignerMode          string        `env:"SIGNER_MODE,default=local"`
	RemoteSignerURL     string        `env:"REMOTE_SIGNER_URL"`
	RemoteSignerTimeout time.Duration `env:"REMOTE_SIGNER_TIMEOUT,default=5s"`
	RemoteSignerRetries int           `env:"REMOTE_SIGNER_RETRIES,default=3"`

	// artifact storage
	StoreBackend       string        `env:"STORE_BACKEND,default=fs"`
	StoreDir           string        `env:"STORE_DIR,default=./artifacts"`
	StorePublicBaseURL string        `env:"STORE_PUBLIC_BASE_URL,default=https://localhost:8080/artifacts"`
	StoreUploadURL     string        `env:"STORE_UPLOAD_URL"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT,default=5s"`
	StoreRetries       int           `env:"STORE_RETRIES,default=3"`

	// loyalty class management
	ClassEndpointURL    string        `env:"CLASS_ENDPOINT_URL"`
	TokenEndpointURL    string        `env:"TOKEN_ENDPOINT_URL,default=https://oauth2.googleapis.com/token"`
	TokenScope          string        `env:"TOKEN_SCOPE,default=https://www.googleapis.com/auth/wallet_object.issuer"`
	ClassConflictPolicy string        `env:"CLASS_CONFLICT_POLICY,default=idempotent"`
	ClassTimeout        time.Duration `env:"CLASS_TIMEOUT,default=5s"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	switch cfg.SignerMode {
	case SignerModeLocal:
		if cfg.SigningCertPath == "" {
			return fmt.Errorf("SIGNING_CERT_PATH is required when SIGNER_MODE=local")
		}
	case SignerModeRemote:
		if cfg.RemoteSignerURL == "" {
			return fmt.Errorf("REMOTE_SIGNER_URL is required when SIGNER_MODE=remote")
		}
	default:
		return fmt.Errorf("invalid SIGNER_MODE: %s (must be %q or %q)", cfg.SignerMode, SignerModeLocal, SignerModeRemote)
	}

	switch cfg.StoreBackend {
	case StoreBackendFS, StoreBackendMemory:
	case StoreBackendHTTP:
		if cfg.StoreUploadURL == "" {
			return fmt.Errorf("STORE_UPLOAD_URL is required when STORE_BACKEND=http")
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND: %s", cfg.StoreBackend)
	}

	if cfg.ClassConflictPolicy != ClassConflictIdempotent && cfg.ClassConflictPolicy != ClassConflictError {
		return fmt.Errorf("invalid CLASS_CONFLICT_POLICY: %s (must be %q or %q)",
			cfg.ClassConflictPolicy, ClassConflictIdempotent, ClassConflictError)
	}

	if len(cfg.TeamIdentifier) != 10 {
		return fmt.Errorf("TEAM_IDENTIFIER must be exactly 10 characters, got %d", len(cfg.TeamIdentifier))
	}

	if cfg.RemoteSignerRetries < 0 {
		return fmt.Errorf("REMOTE_SIGNER_RETRIES must be 0 or greater")
	}
	if cfg.StoreRetries < 0 {
		return fmt.Errorf("STORE_RETRIES must be 0 or greater")
	}

	return nil
}
