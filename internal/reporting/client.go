// Package reporting provides connectivity to the MS SQL Server reporting
// warehouse. The API pushes periodic pipeline and commission snapshots there
// for company-wide BI dashboards.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/structura-group/pipeline-api/internal/config"
	"go.uber.org/zap"
)

const (
	// Retry configuration for connection attempts
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

// PipelineStageSnapshot is one exported row of the per-stage pipeline
// breakdown at snapshot time.
type PipelineStageSnapshot struct {
	SnapshotAt time.Time
	Stage      string
	DealCount  int64
	TotalValue float64
}

// CommissionSnapshot is one exported commission row at snapshot time.
type CommissionSnapshot struct {
	SnapshotAt     time.Time
	CommissionID   string
	DealID         string
	AgentID        string
	Rate           float64
	EarnedAmount   float64
	ReleasedAmount float64
	Status         string
}

// Client writes snapshot rows to the MS SQL Server reporting warehouse.
// It manages connection pooling and retries transient connect failures.
type Client struct {
	db           *sql.DB
	config       *config.ReportingConfig
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewClient creates a new reporting warehouse client. Returns nil if the
// warehouse is not enabled or not configured; export jobs treat a nil client
// as a no-op.
func NewClient(cfg *config.ReportingConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Reporting warehouse connection disabled")
		return nil, nil
	}

	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Reporting warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr, err := buildConnectionString(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	var db *sql.DB
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		logger.Info("Attempting reporting warehouse connection",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)

		db, err = sql.Open("sqlserver", connStr)
		if err != nil {
			logger.Warn("Failed to open reporting warehouse connection",
				zap.Error(err), zap.Int("attempt", attempt))
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

		ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
		err = db.PingContext(ctx)
		cancel()

		if err != nil {
			logger.Warn("Reporting warehouse ping failed",
				zap.Error(err), zap.Int("attempt", attempt))
			_ = db.Close()
			if attempt < defaultMaxRetries {
				time.Sleep(backoff)
				backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
			}
			continue
		}

		logger.Info("Reporting warehouse connection established",
			zap.Int("attempts_taken", attempt))

		return &Client{
			db:           db,
			config:       cfg,
			logger:       logger,
			queryTimeout: cfg.QueryTimeoutDuration(),
		}, nil
	}

	return nil, fmt.Errorf("failed to connect to reporting warehouse after %d attempts: %w", defaultMaxRetries, err)
}

// ExportPipelineSnapshot writes one pipeline snapshot batch. All rows of a
// batch share the same snapshot timestamp.
func (c *Client) ExportPipelineSnapshot(ctx context.Context, rows []PipelineStageSnapshot) error {
	if c == nil || c.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO pipeline_stage_snapshots
		(snapshot_at, stage, deal_count, total_value)
		VALUES (@p1, @p2, @p3, @p4)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert,
			row.SnapshotAt, row.Stage, row.DealCount, row.TotalValue); err != nil {
			return fmt.Errorf("failed to insert pipeline snapshot row: %w", err)
		}
	}

	return tx.Commit()
}

// ExportCommissionSnapshot writes one commission snapshot batch.
func (c *Client) ExportCommissionSnapshot(ctx context.Context, rows []CommissionSnapshot) error {
	if c == nil || c.db == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin export transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO commission_snapshots
		(snapshot_at, commission_id, deal_id, agent_id, rate, earned_amount, released_amount, status)
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8)`
	for _, row := range rows {
		if _, err := tx.ExecContext(ctx, insert,
			row.SnapshotAt, row.CommissionID, row.DealID, row.AgentID,
			row.Rate, row.EarnedAmount, row.ReleasedAmount, row.Status); err != nil {
			return fmt.Errorf("failed to insert commission snapshot row: %w", err)
		}
	}

	return tx.Commit()
}

// HealthCheck pings the warehouse connection.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultHealthCheckTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

// Close gracefully closes the warehouse connection. Should be called during
// application shutdown.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	c.logger.Info("Closing reporting warehouse connection")
	return c.db.Close()
}

// buildConnectionString constructs a SQL Server connection string from the
// config. URL format expected: host:port/database or host:port.
func buildConnectionString(cfg *config.ReportingConfig) (string, error) {
	urlParts := strings.SplitN(cfg.URL, "/", 2)
	hostPort := urlParts[0]
	database := ""
	if len(urlParts) > 1 {
		database = urlParts[1]
	}

	hostParts := strings.SplitN(hostPort, ":", 2)
	host := hostParts[0]
	port := "1433"
	if len(hostParts) > 1 {
		port = hostParts[1]
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}

	return u.String(), nil
}

func min(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
