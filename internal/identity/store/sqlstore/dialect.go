package sqlstore

import (
	"database/sql"
	"strings"
)

// Constraint classifies a violated schema constraint.
type Constraint int

const (
	ConstraintNone Constraint = iota
	ConstraintIdentityKey
	ConstraintName
	ConstraintEmail
	ConstraintProviderID
	ConstraintUserReference
)

func (c Constraint) String() string {
	switch c {
	case ConstraintIdentityKey:
		return "identities_pkey"
	case ConstraintName:
		return "idx_name"
	case ConstraintEmail:
		return "idx_email"
	case ConstraintProviderID:
		return "idx_provider_provider_id"
	case ConstraintUserReference:
		return "external_logins_user_id_fkey"
	default:
		return "none"
	}
}

// Dialect captures what differs between the relational engines the identity
// store runs on.
type Dialect interface {
	// Name is the driver name, used in logs.
	Name() string

	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	// Numbered placeholders allow one argument to be referenced twice.
	Placeholder(n int) string

	// Constraint classifies err as a constraint violation. Errors that are
	// not constraint violations yield ConstraintNone.
	Constraint(err error) Constraint

	// ApplyMigrations brings the schema up to date.
	ApplyMigrations(db *sql.DB) error
}

// rebind rewrites a query written with $n placeholders into the dialect's
// placeholder syntax.
func rebind(d Dialect, query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		n := 0
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			n = n*10 + int(query[j]-'0')
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		b.WriteString(d.Placeholder(n))
		i = j - 1
	}
	return b.String()
}
