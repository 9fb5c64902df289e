package sqlstore

import (
	"strconv"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/store"
)

// searchBuilder accumulates a dynamic query written with $n placeholders.
type searchBuilder struct {
	where []string
	args  []any
}

func (b *searchBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *searchBuilder) in(column string, values []any) {
	if values == nil {
		return
	}
	if len(values) == 0 {
		b.where = append(b.where, "1 = 0")
		return
	}
	params := make([]string, len(values))
	for i, v := range values {
		params[i] = b.bind(v)
	}
	b.where = append(b.where, column+" IN ("+strings.Join(params, ", ")+")")
}

// buildSearch renders a keyset-paginated identity query. Rows are ordered by
// the order key with user_id breaking ties, and the cursor is exclusive.
func buildSearch(d Dialect, search store.SearchIdentity) (string, []any) {
	b := &searchBuilder{}

	if search.UserIDs != nil {
		values := make([]any, len(search.UserIDs))
		for i, id := range search.UserIDs {
			values[i] = id
		}
		b.in("user_id", values)
	}
	b.in("email", stringValues(search.Emails))
	b.in("name", stringValues(search.Names))

	var orderBy string
	switch search.Order.Kind {
	case store.OrderByEmail:
		b.where = append(b.where, "email IS NOT NULL")
		orderBy = "email, user_id"
		if c := search.Order.After; c != nil {
			b.keyset("email", c)
		}
	case store.OrderByName:
		orderBy = "name, user_id"
		if c := search.Order.After; c != nil {
			b.keyset("name", c)
		}
	default:
		orderBy = "user_id"
		if c := search.Order.After; c != nil {
			b.where = append(b.where, "user_id > "+b.bind(c.UserID))
		}
	}

	var q strings.Builder
	q.WriteString("SELECT ")
	q.WriteString(identityColumns)
	q.WriteString(" FROM identities")
	if len(b.where) > 0 {
		q.WriteString(" WHERE ")
		q.WriteString(strings.Join(b.where, " AND "))
	}
	q.WriteString(" ORDER BY ")
	q.WriteString(orderBy)
	q.WriteString(" LIMIT ")
	q.WriteString(b.bind(search.Limit()))

	return rebind(d, q.String()), b.args
}

func (b *searchBuilder) keyset(column string, c *store.Cursor) {
	key := b.bind(c.Key)
	id := b.bind(c.UserID)
	b.where = append(b.where,
		"("+column+" > "+key+" OR ("+column+" = "+key+" AND user_id > "+id+"))")
}

func stringValues(values []string) []any {
	if values == nil {
		return nil
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
