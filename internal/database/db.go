// Package database executes units of work against the relational engines that
// back the variant and annotation catalogs. It owns driver selection, the
// connection pool and the retry-once policy for stale pooled connections.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"popstudy/pkg/sourceapi"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // register sqlite as a database/sql driver
)

// Driver identifies a supported relational engine.
type Driver string

const (
	DriverPostgres Driver = "postgres" // PostgreSQL server via pgx
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file or memory database
)

const (
	defaultPostgresDSN = "postgres://localhost/popstudy?sslmode=disable"
	defaultSQLitePath  = "popstudy.db"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the function used to open pools and returns a restore
// func. Tests use it to inject failing drivers.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Config selects the engine and its connection string.
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
}

// DB is a replaceable connection pool. Invalidation swaps in a fresh pool so
// in-flight holders of the old one are unaffected.
type DB struct {
	cfg  Config
	mu   sync.RWMutex
	pool *sql.DB
}

// Open creates the pool and verifies connectivity. A failed ping is reported
// as sourceapi.ErrConnectionUnavailable.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			cfg.DSN = defaultPostgresDSN
		}
	case DriverSQLite, "":
		cfg.Driver = DriverSQLite
		if cfg.DSN == "" {
			cfg.DSN = defaultSQLitePath
		}
		if cfg.MaxOpenConns == 0 {
			cfg.MaxOpenConns = 1
		}
	default:
		return nil, fmt.Errorf("unknown database driver %s", cfg.Driver)
	}
	pool, err := openPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w: %w", cfg.Driver, sourceapi.ErrConnectionUnavailable, err)
	}
	return &DB{cfg: cfg, pool: pool}, nil
}

func openPool(cfg Config) (*sql.DB, error) {
	openMu.Lock()
	pool, err := sqlOpen(driverName(cfg.Driver), cfg.DSN)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return pool, nil
}

func driverName(d Driver) string {
	if d == DriverPostgres {
		return "pgx"
	}
	return string(d)
}

// Driver reports the engine behind the pool.
func (d *DB) Driver() Driver { return d.cfg.Driver }

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d *DB) Placeholder(n int) string {
	if d.cfg.Driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d *DB) current() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pool
}

// invalidate replaces stale with a fresh pool unless another caller already did.
func (d *DB) invalidate(stale *sql.DB) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != stale {
		return nil
	}
	fresh, err := openPool(d.cfg)
	if err != nil {
		return err
	}
	_ = stale.Close()
	d.pool = fresh
	return nil
}

// Ping checks connectivity without retrying.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.current().PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", d.cfg.Driver, err)
	}
	return nil
}

// Close releases the pool.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pool.Close()
}
