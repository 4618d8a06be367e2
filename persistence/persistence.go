// Package persistence opens the bun database handle backing the user store
// and classifies the errors the drivers produce.
//
// Two drivers are supported: sqlite (through sqliteshim, the default) and
// postgres (through pgx). The handle is created explicitly by the caller,
// injected where needed and closed by the caller.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultPingTimeout bounds the connectivity check in Open
const DefaultPingTimeout = 5 * time.Second

// Config holds connection options
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// Open creates a bun.DB for the configured driver and pings it
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	var (
		db  *bun.DB
		err error
	)

	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite, "sqlite3":
		db, err = openSQLite(ctx, cfg)
	case DriverPostgres, "postgresql", "pgx":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("persistence: unsupported driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// sqlite connections are pinned to one so the foreign_keys pragma and
// in-memory databases survive for the lifetime of the handle.
func openSQLite(ctx context.Context, cfg Config) (*bun.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("persistence: open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: enable sqlite foreign keys: %w", err)
	}

	return db, nil
}

func openPostgres(cfg Config) (*bun.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("persistence: postgres requires a DSN")
	}

	connConfig, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("persistence: parse postgres DSN: %w", err)
	}

	sqldb := stdlib.OpenDB(*connConfig)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// Table describes a table created by CreateTables
type Table struct {
	Model       any
	ForeignKeys []string
}

// CreateTables creates the given tables if they do not exist, in order
func CreateTables(ctx context.Context, db bun.IDB, tables ...Table) error {
	for _, table := range tables {
		q := db.NewCreateTable().Model(table.Model).IfNotExists()
		for _, fk := range table.ForeignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return Wrap("create table", err)
		}
	}
	return nil
}
