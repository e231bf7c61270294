// database/dialect.go
package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	switch d {
	case Postgres:
		return "pgx"
	default:
		return string(d)
	}
}

// rebind rewrites ? placeholders to $1..$n for Postgres. Queries in this
// package never contain a literal question mark.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate locks the probed row for the rest of the transaction where the
// backend supports it. SQLite serialises writers on its own.
func (d Dialect) forUpdate() string {
	if d == SQLite {
		return ""
	}
	return " FOR UPDATE"
}

// isRetryable reports whether an upsert transaction lost a race and can be
// replayed: a duplicate key, or a deadlock between two FOR UPDATE probes of
// the same missing key (MySQL gap locks).
func (d Dialect) isRetryable(err error) bool {
	return d.isUniqueViolation(err) || d.isDeadlock(err)
}

func (d Dialect) isDeadlock(err error) bool {
	switch d {
	case MySQL:
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1213
	case Postgres:
		var pe *pgconn.PgError
		return errors.As(err, &pe) && pe.Code == "40P01" // deadlock_detected
	}
	return false
}

// isUniqueViolation reports whether err is the backend's duplicate-key error.
func (d Dialect) isUniqueViolation(err error) bool {
	switch d {
	case MySQL:
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	case Postgres:
		var pe *pgconn.PgError
		return errors.As(err, &pe) && pe.Code == "23505" // unique_violation
	case SQLite:
		var se *sqlite.Error
		return errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	}
	return false
}
