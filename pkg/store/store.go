// Package store serves the demo library from PostgreSQL, translating
// filters into SQL instead of filtering in memory.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/sqlfilter"
	"github.com/dd0wney/cluso-filtering/pkg/validation"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore handles library persistence using PostgreSQL
type PGStore struct {
	pool       *pgxpool.Pool
	translator *sqlfilter.Translator
	logger     logging.Logger
}

// Option configures a PGStore
type Option func(*PGStore)

// WithLogger logs queries at debug level.
func WithLogger(logger logging.Logger) Option {
	return func(s *PGStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCombinators sets the and/or keywords filters are built with. Empty
// keywords keep the defaults and and or.
func WithCombinators(and, or string) Option {
	return func(s *PGStore) {
		s.translator = sqlfilter.NewTranslator(
			validation.DefaultOr(and, "and"),
			validation.DefaultOr(or, "or"),
		)
	}
}

// NewPGStore connects to databaseURL and creates the tables if needed.
func NewPGStore(ctx context.Context, databaseURL string, opts ...Option) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pooling configuration
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := newPGStore(pool, opts...)
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

func newPGStore(pool *pgxpool.Pool, opts ...Option) *PGStore {
	s := &PGStore{
		pool:       pool,
		translator: sqlfilter.NewTranslator("and", "or"),
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks database connectivity
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PGStore) Close() {
	s.pool.Close()
}
