package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLiteDSN is used when no DSN is configured.
const DefaultSQLiteDSN = "file:dwsp-auth.db?cache=shared"

// Logger is the subset of the auth logger used for query logging.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// Open connects to the configured database and returns a bun handle.
func Open(driver, dsn string, logger Logger) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch driver {
	case "", DriverSQLite:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers, a single connection avoids SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if logger != nil {
		db.AddQueryHook(&queryLogger{logger: logger})
	}

	return db, nil
}

// Ping checks connectivity within timeout.
func Ping(ctx context.Context, db *bun.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}

type queryLogger struct {
	logger Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	latency := time.Since(event.StartTime)
	if event.Err != nil && !IsUniqueViolation(event.Err) && event.Err != sql.ErrNoRows {
		h.logger.Error("query failed", "operation", event.Operation(), "latency", latency, "error", event.Err)
		return
	}
	h.logger.Debug("query", "operation", event.Operation(), "latency", latency)
}
