package database

import (
	"database/sql"

	"github.com/DATA-DOG/go-sqlmock"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool creates a new pgxmock pool for testing. The returned pool
// satisfies the DBTX interface and can be passed to any PostgreSQL repository
// constructor. Call ExpectationsWereMet() at the end of each test.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}

// NewMockSQL creates a sqlmock-backed *sql.DB for the MySQL repositories.
// Expectations are matched as regular expressions.
func NewMockSQL() (*sql.DB, sqlmock.Sqlmock, error) {
	return sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
}
