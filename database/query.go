package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"storefront_server/config"
	"storefront_server/structs"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// Supported values of DB_DRIVER.
const (
	DriverPG     = "pg"
	DriverPGX    = "pgx"
	DriverSQLite = "sqlite"
)

// DB wraps the bun connection with the driver it was opened with
type DB struct {
	*bun.DB
	Driver string
}

var instance *DB

// Connect opens the configured store, installs the query hook and verifies the
// connection with a ping.
func Connect(cfg *structs.DatabaseConfig, logger *gecho.Logger) (*DB, error) {
	sqldb, dialect, err := openSQLDB(cfg)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, dialect)
	db.AddQueryHook(newQueryHook(logger, cfg.SlowQuery))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite leaves foreign keys off unless asked per connection
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	logger.Info("Connected to database successfully", gecho.Field("driver", cfg.Driver))

	return &DB{DB: db, Driver: cfg.Driver}, nil
}

func openSQLDB(cfg *structs.DatabaseConfig) (*sql.DB, schema.Dialect, error) {
	switch cfg.Driver {
	case DriverPG, "":
		connector := pgdriver.NewConnector(
			pgdriver.WithAddr(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
			pgdriver.WithUser(cfg.User),
			pgdriver.WithPassword(cfg.Password),
			pgdriver.WithDatabase(cfg.Name),
			pgdriver.WithInsecure(cfg.SSLMode == "" || cfg.SSLMode == "disable"),
			pgdriver.WithDialTimeout(cfg.DialTimeout),
			pgdriver.WithReadTimeout(cfg.ReadTimeout),
			pgdriver.WithWriteTimeout(cfg.WriteTimeout),
		)
		sqldb := sql.OpenDB(connector)
		applyPoolSettings(sqldb, cfg)
		return sqldb, pgdialect.New(), nil

	case DriverPGX:
		connCfg, err := pgx.ParseConfig(postgresURL(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse pgx config: %w", err)
		}
		connCfg.ConnectTimeout = cfg.DialTimeout
		sqldb := stdlib.OpenDB(*connCfg)
		applyPoolSettings(sqldb, cfg)
		return sqldb, pgdialect.New(), nil

	case DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// A single connection keeps the PRAGMA and in-memory databases alive
		sqldb.SetMaxOpenConns(1)
		sqldb.SetConnMaxLifetime(0)
		sqldb.SetConnMaxIdleTime(0)
		return sqldb, sqlitedialect.New(), nil
	}

	return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func postgresURL(cfg *structs.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

func applyPoolSettings(sqldb *sql.DB, cfg *structs.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MinConns)
	}
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.MaxIdleTime)
}

// Initialize sets up the global database instance using centralized configuration
func Initialize() error {
	db, err := Connect(config.GetConfig().Database, config.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	instance = db
	return nil
}

// GetInstance returns the global database instance
func GetInstance() *DB {
	if instance == nil {
		log.Fatal("Database instance is not initialized. Call Initialize() first.")
	}
	return instance
}

// CloseInstance closes the global database instance
func CloseInstance() error {
	if instance != nil {
		err := instance.Close()
		instance = nil
		return err
	}
	return nil
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.PingContext(ctx)
}

// GetStats returns connection pool statistics for monitoring
func (db *DB) GetStats() sql.DBStats {
	return db.DB.DB.Stats()
}
