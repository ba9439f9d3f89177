package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smart-planner/core/constants"
	"smart-planner/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type IDatabase interface {
	ExecContext(ctx context.Context, query string, args ...any) error
	ExecResultContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	Rebind(query string) string
	Driver() string
	SQLx() *sqlx.DB
	Close() error
}

// Database wraps a sqlx handle. Queries are written with ? placeholders and
// rebound for the active driver.
type Database struct {
	sqlx   *sqlx.DB
	driver string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string // disable, require, verify-ca, verify-full
	Path            string // sqlite file, ":memory:" allowed
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

var instance *Database

func GetDB() IDatabase {
	return instance
}

func InitDB(config DatabaseConfig) (Database, error) {
	logger.Info("Database:Init:Start", "driver", config.Driver)

	driver, dsn, err := dataSource(config)
	if err != nil {
		return Database{}, err
	}

	sqlxDB, err := sqlx.Connect(driver, dsn)
	if err != nil {
		logger.Error("Database:Init:Connect", err)
		return Database{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = constants.DatabaseMaxOpenConns
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = constants.DatabaseMaxIdleConns
	}
	lifetime := config.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = constants.DatabaseConnMaxLifetime
	}
	if driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY under concurrent merges
		maxOpen, maxIdle = 1, 1
	}

	sqlxDB.SetMaxOpenConns(maxOpen)
	sqlxDB.SetMaxIdleConns(maxIdle)
	sqlxDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Minute)

	if err = sqlxDB.Ping(); err != nil {
		logger.Error("Database:Init:Ping", err)
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	db := Database{sqlx: sqlxDB, driver: driver}
	instance = &db

	logger.Info("Database:Init:Success",
		"driver", driver,
		"host", config.Host,
		"database", config.DBName,
		"maxOpenConns", maxOpen,
		"maxIdleConns", maxIdle,
		"connMaxLifetime", lifetime,
	)
	return db, nil
}

func dataSource(config DatabaseConfig) (string, string, error) {
	switch config.Driver {
	case "", DriverPostgres:
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return DriverPostgres, fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, sslMode), nil
	case DriverSQLite:
		path := config.Path
		if path == "" {
			path = ":memory:"
		}
		return DriverSQLite, path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) error {
	_, err := d.sqlx.ExecContext(ctx, d.Rebind(query), args...)
	return err
}

func (d *Database) ExecResultContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sqlx.ExecContext(ctx, d.Rebind(query), args...)
}

func (d *Database) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.GetContext(ctx, dest, d.Rebind(query), args...)
}

func (d *Database) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.SelectContext(ctx, dest, d.Rebind(query), args...)
}

func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sqlx.QueryRowContext(ctx, d.Rebind(query), args...)
}

func (d *Database) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return d.sqlx.NamedExecContext(ctx, query, arg)
}

// Rebind converts ? placeholders to the driver's bindvar style.
func (d *Database) Rebind(query string) string {
	if d.driver == DriverPostgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) SQLx() *sqlx.DB {
	return d.sqlx
}

func (d *Database) Close() error {
	if d.sqlx == nil {
		return nil
	}
	return d.sqlx.Close()
}
