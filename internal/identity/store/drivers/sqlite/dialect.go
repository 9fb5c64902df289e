package sqlite

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/store/sqlstore"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect adapts the shared SQL store to SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholder(n int) string { return "?" + strconv.Itoa(n) }

func (Dialect) ApplyMigrations(db *sql.DB) error { return applyMigrations(db) }

// SQLite reports the offending columns rather than the index name, e.g.
// "UNIQUE constraint failed: external_logins.provider, external_logins.provider_id".
var uniqueColumns = map[string]sqlstore.Constraint{
	"identities.user_id": sqlstore.ConstraintIdentityKey,
	"identities.name":    sqlstore.ConstraintName,
	"identities.email":   sqlstore.ConstraintEmail,
	"external_logins.provider, external_logins.provider_id": sqlstore.ConstraintProviderID,
}

func (Dialect) Constraint(err error) sqlstore.Constraint {
	var serr *moderncsqlite.Error
	if !errors.As(err, &serr) {
		return sqlstore.ConstraintNone
	}

	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return sqlstore.ConstraintUserReference
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return uniqueConstraint(serr.Error())
	}
	return sqlstore.ConstraintNone
}

func uniqueConstraint(msg string) sqlstore.Constraint {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return sqlstore.ConstraintNone
	}
	columns := msg[i+len(marker):]
	// Trim the trailing " (2067)" style code that the driver appends.
	if j := strings.LastIndex(columns, " ("); j >= 0 {
		columns = columns[:j]
	}
	return uniqueColumns[strings.TrimSpace(columns)]
}
