package postgres

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/aussiebroadwan/identity/internal/identity/store/sqlstore"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation     pq.ErrorCode = "23505"
	codeForeignKeyViolation pq.ErrorCode = "23503"
)

// Dialect adapts the shared SQL store to PostgreSQL.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) ApplyMigrations(db *sql.DB) error { return applyMigrations(db) }

var uniqueConstraints = map[string]sqlstore.Constraint{
	"identities_pkey":          sqlstore.ConstraintIdentityKey,
	"idx_name":                 sqlstore.ConstraintName,
	"idx_email":                sqlstore.ConstraintEmail,
	"idx_provider_provider_id": sqlstore.ConstraintProviderID,
}

func (Dialect) Constraint(err error) sqlstore.Constraint {
	var perr *pq.Error
	if !errors.As(err, &perr) {
		return sqlstore.ConstraintNone
	}

	switch perr.Code {
	case codeUniqueViolation:
		return uniqueConstraints[perr.Constraint]
	case codeForeignKeyViolation:
		if perr.Constraint == sqlstore.ConstraintUserReference.String() {
			return sqlstore.ConstraintUserReference
		}
	}
	return sqlstore.ConstraintNone
}
