// Package history persists the outcome of every submission.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
)

const table = "submissions"

type Config struct {
	DSN         string
	DialTimeout time.Duration
}

// DB is an ent SQL driver over either a pgx pool or an embedded sqlite file.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects with pgx for postgres URLs and embedded sqlite otherwise, then migrates.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history: empty DSN")
	}
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	db := &DB{logger: logger}
	var sdb *sql.DB
	if isPostgres(cfg.DSN) {
		logger.Info("connecting to history database", "driver", "pgx")
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse history DSN", "error", err)
			return nil, err
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "invoice-extract"
		pool, err := pgxpool.NewWithConfig(ctx, pc)
		if err != nil {
			logger.Error("failed to connect to history database", "error", err)
			return nil, err
		}
		db.pool = pool
		db.dialect = dialect.Postgres
		sdb = stdlib.OpenDBFromPool(pool)
	} else {
		logger.Info("connecting to history database", "driver", "sqlite")
		var err error
		sdb, err = sql.Open("sqlite", cfg.DSN)
		if err != nil {
			logger.Error("failed to open history database", "error", err)
			return nil, err
		}
		// single writer
		sdb.SetMaxOpenConns(1)
		db.dialect = dialect.SQLite
	}
	db.drv = entsql.OpenDB(db.dialect, sdb)

	if err := sdb.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("failed to connect to history database", "error", err)
		return nil, err
	}
	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("history database ready", "dialect", db.dialect)
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	d := entsql.Dialect(db.dialect)
	text := func(name string) *entsql.ColumnBuilder {
		return d.Column(name).Type("TEXT").Attr("NOT NULL DEFAULT ''")
	}
	integer := func(name string) *entsql.ColumnBuilder {
		return d.Column(name).Type("BIGINT").Attr("NOT NULL DEFAULT 0")
	}

	q, args := d.CreateTable(table).IfNotExists().
		Columns(
			d.Column("id").Type("TEXT").Attr("NOT NULL"),
			integer("seq"),
			text("file_name"),
			text("status"),
			text("error_kind"),
			text("message"),
			integer("status_code"),
			integer("customers"),
			integer("invoices"),
			integer("products"),
			text("result_json"),
			text("started_at"),
			text("recorded_at"),
		).
		PrimaryKey("id").
		Query()
	if err := db.drv.Exec(ctx, q, args, nil); err != nil {
		return common.WrapError(err, "migrate "+table)
	}
	return nil
}

// Close closes the driver and, for postgres, the pgx pool.
func (db *DB) Close() {
	if db == nil {
		return
	}
	db.logger.Info("closing history database")
	if db.drv != nil {
		if err := db.drv.Close(); err != nil {
			db.logger.Error("failed to close history database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
}
