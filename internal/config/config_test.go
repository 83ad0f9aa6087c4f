package config

import "testing"

func baseConfig() *ServerEnvironment {
	return &ServerEnvironment{
		Environment:         "dev",
		Port:                8080,
		SigningKeyPath:      "./keys/issuer.key.pem",
		SigningCertPath:     "./keys/issuer.cert.pem",
		IssuerID:            "issuer@example.com",
		PassTypeIdentifier:  "pass.com.brightcard.loyalty",
		TeamIdentifier:      "ABCDE12345",
		LoyaltyClassID:      "brightcard_loyalty",
		SignerMode:          SignerModeLocal,
		StoreBackend:        StoreBackendFS,
		ClassConflictPolicy: ClassConflictIdempotent,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *ServerEnvironment)
		wantErr bool
	}{
		{name: "valid base config", mutate: func(cfg *ServerEnvironment) {}, wantErr: false},
		{name: "port too low", mutate: func(cfg *ServerEnvironment) { cfg.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(cfg *ServerEnvironment) { cfg.Port = 70000 }, wantErr: true},
		{name: "unknown environment", mutate: func(cfg *ServerEnvironment) { cfg.Environment = "qa" }, wantErr: true},
		{
			name: "local signer without certificate",
			mutate: func(cfg *ServerEnvironment) {
				cfg.SignerMode = SignerModeLocal
				cfg.SigningCertPath = ""
			},
			wantErr: true,
		},
		{
			name: "remote signer without URL",
			mutate: func(cfg *ServerEnvironment) {
				cfg.SignerMode = SignerModeRemote
				cfg.RemoteSignerURL = ""
			},
			wantErr: true,
		},
		{
			name: "remote signer with URL",
			mutate: func(cfg *ServerEnvironment) {
				cfg.SignerMode = SignerModeRemote
				cfg.RemoteSignerURL = "https://signer.example.com/sign"
			},
			wantErr: false,
		},
		{name: "unknown signer mode", mutate: func(cfg *ServerEnvironment) { cfg.SignerMode = "hsm" }, wantErr: true},
		{
			name: "http store without upload URL",
			mutate: func(cfg *ServerEnvironment) {
				cfg.StoreBackend = StoreBackendHTTP
				cfg.StoreUploadURL = ""
			},
			wantErr: true,
		},
		{
			name: "http store with upload URL",
			mutate: func(cfg *ServerEnvironment) {
				cfg.StoreBackend = StoreBackendHTTP
				cfg.StoreUploadURL = "https://uploads.example.com"
			},
			wantErr: false,
		},
		{name: "memory store", mutate: func(cfg *ServerEnvironment) { cfg.StoreBackend = StoreBackendMemory }, wantErr: false},
		{name: "unknown store backend", mutate: func(cfg *ServerEnvironment) { cfg.StoreBackend = "s3" }, wantErr: true},
		{name: "unknown conflict policy", mutate: func(cfg *ServerEnvironment) { cfg.ClassConflictPolicy = "retry" }, wantErr: true},
		{name: "team identifier too short", mutate: func(cfg *ServerEnvironment) { cfg.TeamIdentifier = "SHORT" }, wantErr: true},
		{name: "negative signer retries", mutate: func(cfg *ServerEnvironment) { cfg.RemoteSignerRetries = -1 }, wantErr: true},
		{name: "negative store retries", mutate: func(cfg *ServerEnvironment) { cfg.StoreRetries = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewServerConfigFromEnvironment(t *testing.T) {
	t.Setenv("SIGNING_KEY_PATH", "./keys/issuer.key.pem")
	t.Setenv("SIGNING_CERT_PATH", "./keys/issuer.cert.pem")
	t.Setenv("ISSUER_ID", "issuer@example.com")
	t.Setenv("PASS_TYPE_IDENTIFIER", "pass.com.brightcard.loyalty")
	t.Setenv("TEAM_IDENTIFIER", "ABCDE12345")
	t.Setenv("LOYALTY_CLASS_ID", "brightcard_loyalty")
	t.Setenv("PORT", "9090")

	cfg, err := NewServerConfig()
	if err != nil {
		t.Fatalf("NewServerConfig() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Environment != "dev" {
		t.Errorf("Environment = %q, want default dev", cfg.Environment)
	}
	if cfg.SignerMode != SignerModeLocal {
		t.Errorf("SignerMode = %q, want default local", cfg.SignerMode)
	}
	if cfg.StoreBackend != StoreBackendFS {
		t.Errorf("StoreBackend = %q, want default fs", cfg.StoreBackend)
	}
	if cfg.ClassConflictPolicy != ClassConflictIdempotent {
		t.Errorf("ClassConflictPolicy = %q, want default idempotent", cfg.ClassConflictPolicy)
	}
}
