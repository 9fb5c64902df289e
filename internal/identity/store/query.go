package store

import (
	"fmt"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/google/uuid"
)

type FindKind int

const (
	FindByUserID FindKind = iota + 1
	FindByEmail
	FindByName
	FindByExternalLogin
)

// FindIdentity selects exactly one lookup key. Use the By* constructors.
type FindIdentity struct {
	Kind  FindKind
	ID    uuid.UUID
	Value string
	Login domain.ExternalLogin
}

func ByUserID(id uuid.UUID) FindIdentity { return FindIdentity{Kind: FindByUserID, ID: id} }
func ByEmail(email string) FindIdentity  { return FindIdentity{Kind: FindByEmail, Value: email} }
func ByName(name string) FindIdentity    { return FindIdentity{Kind: FindByName, Value: name} }

func ByExternalLogin(login domain.ExternalLogin) FindIdentity {
	return FindIdentity{Kind: FindByExternalLogin, Login: login}
}

func (f FindIdentity) String() string {
	switch f.Kind {
	case FindByUserID:
		return fmt.Sprintf("user_id=%s", f.ID)
	case FindByEmail:
		return fmt.Sprintf("email=%s", f.Value)
	case FindByName:
		return fmt.Sprintf("name=%s", f.Value)
	case FindByExternalLogin:
		return fmt.Sprintf("provider=%s provider_id=%s", f.Login.Provider, f.Login.ProviderID)
	default:
		return "invalid"
	}
}

type OrderKind int

const (
	OrderByUserID OrderKind = iota
	OrderByEmail
	OrderByName
)

// Cursor is the exclusive lower bound of a keyset page. Key holds the email or
// name for the corresponding orderings and is ignored when ordering by user id.
type Cursor struct {
	Key    string
	UserID uuid.UUID
}

type SearchOrder struct {
	Kind  OrderKind
	After *Cursor
}

// SearchIdentity filters are a conjunction; a nil slice disables the filter.
// Identities without an email are excluded when ordering by email.
type SearchIdentity struct {
	Order SearchOrder
	Count int // <= 0 means MaxSearchCount

	UserIDs []uuid.UUID
	Emails  []string
	Names   []string
}

// Limit returns the effective page size.
func (s SearchIdentity) Limit() int {
	if s.Count <= 0 || s.Count > MaxSearchCount {
		return MaxSearchCount
	}
	return s.Count
}

// NextCursor returns the cursor continuing after the last identity of a page
// produced with the given order.
func NextCursor(order OrderKind, last domain.Identity) *Cursor {
	c := &Cursor{UserID: last.UserID}
	switch order {
	case OrderByEmail:
		if last.Email != nil {
			c.Key = *last.Email
		}
	case OrderByName:
		c.Key = last.Name
	}
	return c
}
