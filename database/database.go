package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// Open connects to the database and waits for it to accept connections.
func Open(ctx context.Context, driver, url string) (*sql.DB, error) {
	db, err := open(driver, url)
	if err != nil {
		return nil, err
	}

	const maxRetries = 10
	retryDelay := time.Second
	for i := 0; ; i++ {
		err := db.PingContext(ctx)
		if err == nil {
			break
		}
		if i == maxRetries-1 || driver == DriverSQLite {
			db.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}
		slog.Warn("database not ready, retrying", "attempt", i+1, "delay", retryDelay, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	slog.Info("database connection established", "driver", driver)
	return db, nil
}

func open(driver, url string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres:
		db, err := sql.Open("postgres", NormalizePostgresURL(url))
		if err != nil {
			return nil, fmt.Errorf("opening postgres database: %w", err)
		}
		return db, nil
	case DriverPgx:
		config, err := pgx.ParseConfig(NormalizePostgresURL(url))
		if err != nil {
			return nil, fmt.Errorf("parsing database URL: %w", err)
		}
		return stdlib.OpenDB(*config), nil
	case DriverSQLite:
		return openSQLite(url)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return db, nil
}

func sqliteDSN(path string) string {
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NormalizePostgresURL rewrites postgresql:// to postgres:// and disables TLS
// unless the URL says otherwise.
func NormalizePostgresURL(url string) string {
	if rest, ok := strings.CutPrefix(url, "postgresql://"); ok {
		url = "postgres://" + rest
	}
	if !strings.HasPrefix(url, "postgres://") || strings.Contains(url, "sslmode=") {
		return url
	}
	separator := "?"
	if strings.Contains(url, "?") {
		separator = "&"
	}
	return url + separator + "sslmode=disable"
}
