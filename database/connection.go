// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/OluwaPella/Stage-two-bankend/config"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers "sqlite"
)

// DB is the shared connection pool plus the dialect its queries are written for.
type DB struct {
	*sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the configured database, verifies the connection and makes
// sure the schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dialect := Dialect(cfg.Driver)
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool settings
	if dialect == SQLite {
		// one writer at a time; avoids SQLITE_BUSY between pooled connections
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: dialect, logger: logger.Named("database")}
	if err := db.createSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	db.logger.Info("connected to database", zap.String("driver", cfg.Driver))
	return db, nil
}

// Dialect reports which SQL flavour the pool speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the connection pool. Typically called on application shutdown.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	err := db.DB.Close()
	db.logger.Info("database connection closed")
	return err
}

func buildDSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	switch Dialect(cfg.Driver) {
	case MySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, defaultString(cfg.Port, "3306"))
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, defaultString(cfg.Port, "5432")),
			Path:     "/" + cfg.DBName,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case SQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite database path is not configured")
		}
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
