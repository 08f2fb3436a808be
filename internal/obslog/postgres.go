package obslog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"samesky/pkg/models"
)

// PostgresConfig configures the Postgres-backed log.
type PostgresConfig struct {
	URL   string
	Table string
}

// PostgresProvider reads observations from a table keyed by obs_date.
type PostgresProvider struct {
	pool  *pgxpool.Pool
	query string
}

// NewPostgresProvider creates a connection pool and fails fast if the database is unreachable.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("postgres URL is empty")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		cfg.Table = "ztf_observations"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresProvider{pool: pool, query: buildQuery(cfg.Table)}, nil
}

func buildQuery(table string) string {
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return "SELECT field, obsjd, obs_datetime, exptime FROM " + ident + " WHERE obs_date = $1 ORDER BY obsjd, field"
}

// ForDate queries the observations logged on date.
func (p *PostgresProvider) ForDate(ctx context.Context, date models.Date) (Result, error) {
	day := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, time.UTC)
	rows, err := p.pool.Query(ctx, p.query, day)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Unavailable(fmt.Sprintf("query %s: %v", date, err)), nil
	}
	defer rows.Close()

	obs := make([]models.Observation, 0, 256)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.FieldID, &o.ObsJD, &o.ObsTime, &o.ExposureSeconds); err != nil {
			return Malformed(fmt.Sprintf("scan %s: %v", date, err)), nil
		}
		o.ObsTime = o.ObsTime.UTC()
		obs = append(obs, o)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Unavailable(fmt.Sprintf("read %s: %v", date, err)), nil
	}
	return OK(obs), nil
}

// Close shuts down the connection pool.
func (p *PostgresProvider) Close() error {
	p.pool.Close()
	return nil
}
