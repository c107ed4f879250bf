package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source identifies where secrets are resolved from.
type Source string

const (
	// SourceEnvironment resolves secrets from environment variables.
	SourceEnvironment Source = "environment"
	// SourceVault resolves secrets from Azure Key Vault.
	SourceVault Source = "vault"
	// SourceAuto picks environment in development and vault everywhere else.
	SourceAuto Source = "auto"
)

// Resolve maps SourceAuto onto a concrete source for the given environment.
// Concrete sources pass through unchanged.
func (s Source) Resolve(environment string) Source {
	if s != SourceAuto {
		return s
	}
	switch environment {
	case "development", "local", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// Provider resolves named secrets from the configured source.
type Provider struct {
	source Source
	vault  *VaultClient
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider.
type ProviderConfig struct {
	Source       Source
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// NewProvider creates a secrets provider. The vault client is only dialed
// when the resolved source is vault.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := cfg.Source.Resolve(cfg.Environment)

	p := &Provider{
		source: source,
		logger: logger,
	}

	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vault, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		p.vault = vault
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return p, nil
}

// GetSecret retrieves a secret by name. For the vault source the name is the
// Key Vault secret name; for the environment source it is the variable name.
func (p *Provider) GetSecret(ctx context.Context, name string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", name)
		}
		return value, nil
	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, name)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv returns the environment variable when set, otherwise falls
// back to the configured source. Lets operators override individual vault
// secrets without touching the vault.
func (p *Provider) GetSecretOrEnv(ctx context.Context, name, envName string) (string, error) {
	if value := os.Getenv(envName); value != "" {
		p.logger.Debug("Using environment variable override",
			zap.String("env_name", envName),
		)
		return value, nil
	}
	return p.GetSecret(ctx, name)
}
