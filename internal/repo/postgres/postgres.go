package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Options tunes the connection pool and the startup wait.
type Options struct {
	MaxOpenConns int
	PingAttempts int
	PingDelay    time.Duration
}

func DefaultOptions() Options {
	return Options{MaxOpenConns: 10, PingAttempts: 30, PingDelay: 2 * time.Second}
}

// Open connects to Postgres, waiting for the server to accept connections.
func Open(ctx context.Context, dsn string, log *zap.Logger, opts Options) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	s := NewWithDB(db, log)
	if err := s.waitForDB(ctx, opts); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return s, nil
}

// NewWithDB wraps an already opened database handle.
func NewWithDB(db *sql.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) waitForDB(ctx context.Context, opts Options) error {
	attempts := opts.PingAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = s.db.PingContext(ctxPing)
		cancel()
		if err == nil {
			s.log.Info("db_connected", zap.Int("attempt", i))
			return nil
		}
		if i == attempts {
			break
		}
		s.log.Warn("db_waiting", zap.Int("attempt", i), zap.Int("max_attempts", attempts), zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping: %w", ctx.Err())
		case <-time.After(opts.PingDelay):
		}
	}
	return fmt.Errorf("ping: %w", err)
}

// Migrate applies the schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("db_schema_applied")
	return nil
}

// inTx runs fn in a transaction, rolling back when fn or the commit fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
