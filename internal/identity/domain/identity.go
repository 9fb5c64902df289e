package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdentityKind distinguishes regular users from studios. It is persisted as a
// SMALLINT (1 = user, 2 = studio).
type IdentityKind int16

const (
	IdentityKindUser   IdentityKind = 1
	IdentityKindStudio IdentityKind = 2
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityKindUser:
		return "user"
	case IdentityKindStudio:
		return "studio"
	default:
		return fmt.Sprintf("IdentityKind(%d)", int16(k))
	}
}

// Value implements driver.Valuer.
func (k IdentityKind) Value() (driver.Value, error) {
	switch k {
	case IdentityKindUser, IdentityKindStudio:
		return int64(k), nil
	default:
		return nil, fmt.Errorf("domain: invalid identity kind %d", int16(k))
	}
}

// Scan implements sql.Scanner.
func (k *IdentityKind) Scan(src any) error {
	var v int64
	switch s := src.(type) {
	case int64:
		v = s
	case int32:
		v = int64(s)
	case int16:
		v = int64(s)
	default:
		return fmt.Errorf("domain: cannot scan %T into IdentityKind", src)
	}

	switch IdentityKind(v) {
	case IdentityKindUser, IdentityKindStudio:
		*k = IdentityKind(v)
		return nil
	default:
		return fmt.Errorf("domain: invalid value for IdentityKind: %d", v)
	}
}

// Identity is a registered principal.
type Identity struct {
	UserID           uuid.UUID
	Kind             IdentityKind
	Name             string
	Email            *string // nil when the identity has no email
	IsEmailConfirmed bool
	Creation         time.Time
}
