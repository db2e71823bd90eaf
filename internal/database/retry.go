package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"popstudy/pkg/sourceapi"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const maxAttempts = 2

type faultClass int

const (
	faultOther faultClass = iota
	faultStale
	faultUnavailable
)

// RunWithConnection runs work on a pooled connection. A stale-connection fault
// invalidates the pool and retries exactly once; if the retry fails the same
// way the fault is reported as sourceapi.ErrConnectionUnavailable. Any other
// error from work is returned unchanged.
func RunWithConnection[T any](ctx context.Context, db *DB, work func(ctx context.Context, conn *sql.Conn) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		pool := db.current()
		res, err := runOnce(ctx, pool, work)
		if err == nil {
			return res, nil
		}
		switch classify(err) {
		case faultStale:
			if attempt < maxAttempts {
				if ierr := db.invalidate(pool); ierr != nil {
					return zero, fmt.Errorf("%w: %w", sourceapi.ErrConnectionUnavailable, ierr)
				}
				continue
			}
			return zero, fmt.Errorf("%w: retry failed: %w", sourceapi.ErrConnectionUnavailable, err)
		case faultUnavailable:
			if errors.Is(err, sourceapi.ErrConnectionUnavailable) {
				return zero, err
			}
			return zero, fmt.Errorf("%w: %w", sourceapi.ErrConnectionUnavailable, err)
		default:
			return zero, err
		}
	}
}

func runOnce[T any](ctx context.Context, pool *sql.DB, work func(context.Context, *sql.Conn) (T, error)) (T, error) {
	var zero T
	conn, err := pool.Conn(ctx)
	if err != nil {
		return zero, err
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		return zero, err
	}
	return work(ctx, conn)
}

func classify(err error) faultClass {
	switch {
	case errors.Is(err, sourceapi.ErrConnectionUnavailable):
		return faultUnavailable
	case errors.Is(err, sourceapi.ErrStaleConnection),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return faultStale
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "57P03":
			return faultUnavailable
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01", pgErr.Code == "57P02":
			return faultStale
		}
		return faultOther
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return faultUnavailable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return faultUnavailable
	}
	if pgconn.SafeToRetry(err) {
		return faultStale
	}
	return faultOther
}
