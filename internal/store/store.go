package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute

	// defaultPageSize matches SQLite's default page_size for new databases.
	defaultPageSize = 4096

	readyTimeout = 2 * time.Second
)

// Options tunes how the database is opened.
type Options struct {
	// QuotaBytes caps the database file size. Zero means unlimited.
	QuotaBytes int64
}

// Store wraps the SQLite database holding records, blob files and chunks.
type Store struct {
	db   *sql.DB
	opts Options
}

// Open opens the SQLite database and applies pending migrations.
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{})
}

// OpenWithOptions is Open with explicit tuning.
func OpenWithOptions(path string, opts Options) (*Store, error) {
	dsn, err := sqliteDSN(path, opts)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	configureDB(db)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, opts: opts}, nil
}

// OpenWithRetry opens the store, retrying with Fibonacci backoff while the
// database file is locked by another process.
func OpenWithRetry(ctx context.Context, path string, opts Options, maxRetries uint64) (*Store, error) {
	var st *Store
	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(250*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		opened, err := OpenWithOptions(path, opts)
		if err != nil {
			if IsBusyError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		st = opened
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return st, nil
}

// Ready reports whether the database answers queries.
func (s *Store) Ready(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store is not open")
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configureDB(db *sql.DB) {
	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
}

// sqliteDSN builds a file URI whose _pragma parameters are applied by the
// driver on every new connection, including ones the pool reopens later.
func sqliteDSN(path string, opts Options) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}

	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "synchronous(NORMAL)")
	query.Add("_pragma", "foreign_keys(1)")
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	if pages := quotaPages(opts.QuotaBytes); pages > 0 {
		query.Add("_pragma", fmt.Sprintf("max_page_count(%d)", pages))
	}

	u := url.URL{Scheme: "file", Path: path, RawQuery: query.Encode()}
	return u.String(), nil
}

func quotaPages(quotaBytes int64) int64 {
	if quotaBytes <= 0 {
		return 0
	}
	return max(quotaBytes/defaultPageSize, 1)
}
