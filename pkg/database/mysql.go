package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig holds MySQL connection configuration.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultMySQLConfig returns defaults matching the pandeyji_eatery schema
// deployment the chatbot was first run against.
func DefaultMySQLConfig() MySQLConfig {
	return MySQLConfig{
		Host:            "localhost",
		Port:            3306,
		User:            "root",
		DBName:          "pandeyji_eatery",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// DriverConfig returns the go-sql-driver configuration for c.
func (c *MySQLConfig) DriverConfig() *mysql.Config {
	dc := mysql.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dc.DBName = c.DBName
	dc.ParseTime = true
	dc.Loc = time.UTC
	return dc
}

// DSN returns the MySQL data source name.
func (c *MySQLConfig) DSN() string {
	return c.DriverConfig().FormatDSN()
}

// NewMySQLDB opens a MySQL handle and verifies it with the same retry policy
// used for PostgreSQL.
func NewMySQLDB(ctx context.Context, cfg *MySQLConfig, logger *slog.Logger) (*sql.DB, error) {
	connector, err := mysql.NewConnector(cfg.DriverConfig())
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	err = connectWithRetry(ctx, logger, "mysql", func() error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping mysql: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
