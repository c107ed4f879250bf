package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/structura-group/pipeline-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Bootstrap BootstrapConfig
	Reporting ReportingConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// JWTConfig holds token issuance configuration. Tokens are HS256-signed
// with a fixed lifetime; there is no revocation list.
type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

// BootstrapConfig controls the init-admin endpoint. The endpoint creates
// seed accounts with published demo credentials and must stay disabled in
// production deployments.
type BootstrapConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// ReportingConfig holds configuration for the MS SQL Server reporting
// warehouse. The connection is optional and write-only (snapshot export).
type ReportingConfig struct {
	// Enabled controls whether the reporting warehouse connection is attempted
	Enabled bool
	// URL is the connection URL in format host:port/database (from REPORTING-URL secret)
	URL string
	// User is the database username (from REPORTING-USERNAME secret)
	User string
	// Password is the database password (from REPORTING-PASSWORD secret)
	Password string
	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused (seconds)
	ConnMaxLifetime int
	// QueryTimeout is the default timeout for queries (seconds)
	QueryTimeout int
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the default per-IP rate limit
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the per-user limit on authenticated routes
	RequestsPerMinuteAuth int
	// LoginRequestsPerMinute is the stricter per-IP limit on the login endpoint
	LoginRequestsPerMinute int
	WhitelistIPs           []string
	WhitelistPaths         []string
}

// JobsConfig holds background job scheduling configuration
type JobsConfig struct {
	// RollupReconcileCron recomputes deal progress rollups from tasks
	RollupReconcileCron string
	// ReportingExportCron pushes pipeline snapshots to the reporting warehouse
	ReportingExportCron string
	// TimeoutSeconds bounds a single job run
	TimeoutSeconds int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (r *ReportingConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(r.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (r *ReportingConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(r.QueryTimeout) * time.Second
}

// ExpiryDuration returns the token lifetime as duration
func (j *JWTConfig) ExpiryDuration() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

// JobTimeoutDuration returns the job timeout as duration
func (j *JobsConfig) JobTimeoutDuration() time.Duration {
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// Load loads configuration from file and environment variables.
// This is a basic load that doesn't fetch secrets from vault;
// use LoadWithSecrets for full secret resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// JWT secret from environment if not in config
	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = v.GetString("JWT_SECRET")
	}

	// Key Vault name from environment if not in config
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	if v.GetBool("REPORTING_ENABLED") {
		cfg.Reporting.Enabled = true
	}

	// Reporting warehouse credentials only come from Key Vault, never from
	// environment variables. See LoadWithSecrets.

	if cfg.App.Environment == "production" && cfg.Bootstrap.Enabled {
		return nil, fmt.Errorf("bootstrap endpoint must not be enabled in production")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from the
// configured source. With the default "auto" source development reads env
// vars and staging/production read Azure Key Vault; USE_AZURE_KEY_VAULT=true
// forces the vault regardless of environment.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	// Reporting warehouse credentials are loaded from Key Vault regardless
	// of environment when the feature is enabled and a vault is configured.
	if cfg.Reporting.Enabled && cfg.Secrets.KeyVaultName != "" {
		if err := loadReportingSecrets(ctx, cfg, logger); err != nil {
			logger.Warn("failed to load reporting warehouse secrets from Key Vault",
				zap.Error(err),
				zap.String("environment", cfg.App.Environment),
			)
			// Don't fail startup - reporting export is optional
		}
	}

	source := secrets.Source(cfg.Secrets.Source).Resolve(cfg.App.Environment)
	if strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true" {
		source = secrets.SourceVault
	}

	if source != secrets.SourceVault {
		logger.Info("loading secrets from environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("secrets.keyVaultName is required when the vault secret source is active")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("loading secrets from Azure Key Vault")

	if host, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-HOST", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if user, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-USER", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if jwtSecret, err := provider.GetSecretOrEnv(ctx, "jwt-signing-secret", "JWT_SECRET"); err == nil && jwtSecret != "" {
		cfg.JWT.Secret = jwtSecret
	}

	if connStr, err := provider.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}

	logger.Info("secrets loaded from vault successfully")
	return cfg, nil
}

// loadReportingSecrets loads reporting warehouse credentials from Azure Key
// Vault. Credentials only come from the vault, never from environment
// variables.
func loadReportingSecrets(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	logger.Info("loading reporting warehouse secrets from Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
		zap.String("environment", cfg.App.Environment),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client for reporting warehouse: %w", err)
	}

	url, err := provider.GetSecret(ctx, "REPORTING-URL")
	if err != nil {
		return fmt.Errorf("failed to get REPORTING-URL from Key Vault: %w", err)
	}
	cfg.Reporting.URL = url

	user, err := provider.GetSecret(ctx, "REPORTING-USERNAME")
	if err != nil {
		return fmt.Errorf("failed to get REPORTING-USERNAME from Key Vault: %w", err)
	}
	cfg.Reporting.User = user

	password, err := provider.GetSecret(ctx, "REPORTING-PASSWORD")
	if err != nil {
		return fmt.Errorf("failed to get REPORTING-PASSWORD from Key Vault: %w", err)
	}
	cfg.Reporting.Password = password

	logger.Info("reporting warehouse credentials loaded from Key Vault successfully")
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Structura Pipeline API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "pipeline")
	v.SetDefault("database.user", "pipeline_user")
	v.SetDefault("database.password", "pipeline_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// JWT defaults; the secret has no default and must be provided
	v.SetDefault("jwt.issuer", "pipeline-api")
	v.SetDefault("jwt.expiryHours", 24)

	// Bootstrap defaults (demo seed accounts, disabled outside development)
	v.SetDefault("bootstrap.enabled", false)
	v.SetDefault("bootstrap.adminEmail", "admin@pms.com")
	v.SetDefault("bootstrap.adminPassword", "Admin@123")
	v.SetDefault("bootstrap.adminName", "System Administrator")

	// Reporting warehouse defaults (MS SQL Server - optional)
	v.SetDefault("reporting.enabled", false)
	v.SetDefault("reporting.maxOpenConns", 10)
	v.SetDefault("reporting.maxIdleConns", 2)
	v.SetDefault("reporting.connMaxLifetime", 300)
	v.SetDefault("reporting.queryTimeout", 30)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./uploads")
	v.SetDefault("storage.maxUploadSizeMB", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 300)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 120)
	v.SetDefault("rateLimit.loginRequestsPerMinute", 10)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/ready"})

	// Job defaults: nightly rollup reconcile, hourly reporting export
	v.SetDefault("jobs.rollupReconcileCron", "0 0 3 * * *")
	v.SetDefault("jobs.reportingExportCron", "0 30 * * * *")
	v.SetDefault("jobs.timeoutSeconds", 300)
}
