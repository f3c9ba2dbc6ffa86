package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectTimeout = 10 * time.Second
	// statementTimeout bounds every query, including the impact aggregates.
	statementTimeout = 30 * time.Second
)

// NewDBPool connects to DATABASE_URL and pings it. app is reported to Postgres
// as application_name so sessions can be told apart in pg_stat_activity.
func NewDBPool(ctx context.Context, cfg *Config, app string) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg, app)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", app, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database as %s: %w", app, err)
	}
	return pool, nil
}

func poolConfig(cfg *Config, app string) (*pgxpool.Config, error) {
	if cfg == nil {
		return nil, errors.New("db: config is required")
	}
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	if cfg.DBMaxConns > 0 {
		pc.MaxConns = int32(cfg.DBMaxConns)
	}
	pc.MinConns = 1
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	params := pc.ConnConfig.RuntimeParams
	if _, set := params["statement_timeout"]; !set {
		params["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	}
	if app != "" {
		params["application_name"] = "community-pool-" + app
	}
	return pc, nil
}
