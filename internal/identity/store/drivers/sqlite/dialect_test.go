package sqlite

import (
	"errors"
	"testing"

	"github.com/aussiebroadwan/identity/internal/identity/store/sqlstore"
	"github.com/stretchr/testify/require"
)

func TestUniqueConstraint(t *testing.T) {
	tests := []struct {
		msg  string
		want sqlstore.Constraint
	}{
		{"constraint failed: UNIQUE constraint failed: identities.user_id (1555)", sqlstore.ConstraintIdentityKey},
		{"constraint failed: UNIQUE constraint failed: identities.name (2067)", sqlstore.ConstraintName},
		{"constraint failed: UNIQUE constraint failed: identities.email (2067)", sqlstore.ConstraintEmail},
		{
			"constraint failed: UNIQUE constraint failed: external_logins.provider, external_logins.provider_id (2067)",
			sqlstore.ConstraintProviderID,
		},
		{"UNIQUE constraint failed: identities.name", sqlstore.ConstraintName},
		{"constraint failed: UNIQUE constraint failed: other.column (2067)", sqlstore.ConstraintNone},
		{"disk I/O error", sqlstore.ConstraintNone},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			require.Equal(t, tt.want, uniqueConstraint(tt.msg))
		})
	}
}

func TestConstraintIgnoresForeignErrors(t *testing.T) {
	require.Equal(t, sqlstore.ConstraintNone, Dialect{}.Constraint(errors.New("UNIQUE constraint failed: identities.name")))
}

func TestPlaceholder(t *testing.T) {
	require.Equal(t, "?1", Dialect{}.Placeholder(1))
	require.Equal(t, "?12", Dialect{}.Placeholder(12))
}
