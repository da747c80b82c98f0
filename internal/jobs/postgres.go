package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the jobs table directly from Postgres.
type PostgresSource struct {
	pool   *pgxpool.Pool
	db     querier
	table  string
	logger *zap.Logger
}

// ConnectPostgres opens a pool and verifies the connection.
func ConnectPostgres(ctx context.Context, databaseURL, table string, logger *zap.Logger) (*PostgresSource, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	source := newPostgresSource(pool, table, logger)
	source.pool = pool
	return source, nil
}

func newPostgresSource(db querier, table string, logger *zap.Logger) *PostgresSource {
	if table = strings.TrimSpace(table); table == "" {
		table = defaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresSource{db: db, table: table, logger: logger}
}

func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresSource) query() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(Columns, ", "), pgx.Identifier{s.table}.Sanitize())
}

// Fetch reads all rows. An empty table yields ErrNoData.
func (s *PostgresSource) Fetch(ctx context.Context) ([]Row, error) {
	rows, err := s.db.Query(ctx, s.query())
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collect jobs: %w", err)
	}

	s.logger.Debug("got rows from postgres", zap.Int("rows", len(items)))
	if len(items) == 0 {
		return nil, ErrNoData
	}

	for _, item := range items {
		for column, value := range item {
			item[column] = plainValue(value)
		}
	}
	return decodeRows(items)
}

// plainValue turns pgx wrapper types into the Go values Clean understands.
func plainValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return v
	}
}
