package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/nexuscrm/backoffice/internal/config"
	"github.com/nexuscrm/backoffice/pkg/logging"
)

// Dialect identifies the SQL flavour behind a connection
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

// Connection wraps a *sql.DB together with its dialect.
// sql.DB is already safe for concurrent use and pools its own connections.
type Connection struct {
	db      *sql.DB
	dialect Dialect
}

var tlsOnce sync.Once // TLS config is registered only once

// Open connects to the store selected by cfg.StorageDriver
func Open(cfg *config.Config) (*Connection, error) {
	switch cfg.StorageDriver {
	case config.DriverMySQL:
		return openMySQL(cfg.MySQL)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("storage driver %q has no SQL connection", cfg.StorageDriver)
	}
}

// New wraps an existing handle, used by tests with sqlmock
func New(db *sql.DB, dialect Dialect) *Connection {
	return &Connection{db: db, dialect: dialect}
}

func openMySQL(c config.MySQLConfig) (*Connection, error) {
	tlsParam := ""
	if c.Host != "" && c.Host != "127.0.0.1" && c.Host != "localhost" {
		// Remote host (e.g., TiDB Cloud) needs TLS with ServerName
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("tidb", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: c.Host,
			}); err != nil {
				logging.For("database").WithError(err).Error("Failed to register TLS config")
			}
		})
		tlsParam = "&tls=tidb"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local%s",
		c.User, c.Password, c.Host, c.Port, c.Database, tlsParam)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns to avoid reconnect churn
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, dialect: DialectMySQL}, nil
}

// OpenSQLite opens (creating when needed) an embedded SQLite database.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*Connection, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Connection{db: db, dialect: DialectSQLite}, nil
}

// Dialect returns the SQL flavour of the connection
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// QueryContext executes a SELECT query with context
func (c *Connection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a SELECT query with context that returns at most one row
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes an INSERT, UPDATE, or DELETE query with context
func (c *Connection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// BeginTx starts a new transaction with context
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, opts)
}

// DB returns the underlying *sql.DB connection
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
