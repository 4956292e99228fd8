package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/tubearchive/internal/constants"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrOrphanReply = errors.New("reply references a comment outside the set")
)

type dbOps interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
}

// DB is the archive store. Inside RunInTx the same methods run on the
// transaction.
type DB struct {
	dbOps
	root   *sqlx.DB
	driver string
}

// Open connects to the configured driver and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case constants.DriverSQLite:
		return NewSQLiteDB(ctx, dsn)
	case constants.DriverPostgres:
		return NewPostgresDB(ctx, dsn)
	}
	return nil, fmt.Errorf("unsupported db driver %q", driver)
}

func NewSQLiteDB(ctx context.Context, path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Set pragmas for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=30000"); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := migrateSQLite(db.DB); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return &DB{dbOps: db, root: db, driver: constants.DriverSQLite}, nil
}

func NewPostgresDB(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := migratePostgres(db.DB); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, err
	}

	return &DB{dbOps: db, root: db, driver: constants.DriverPostgres}, nil
}

// sqliteDSN stores times in a sortable text format and turns on foreign keys
// for every pooled connection.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_time_format=sqlite&_pragma=foreign_keys(1)"
}

// RunInTx runs fn against a transaction-bound DB. The transaction commits
// when fn returns nil and rolls back otherwise.
func (db *DB) RunInTx(ctx context.Context, fn func(txDB *DB) error) error {
	tx, err := db.root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	txDB := &DB{
		dbOps:  tx,
		root:   db.root,
		driver: db.driver,
	}

	if err := fn(txDB); err != nil {
		return err
	}
	return tx.Commit()
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Ping(ctx context.Context) error {
	return db.root.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.root.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
