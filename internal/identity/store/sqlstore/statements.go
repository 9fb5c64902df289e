package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const identityColumns = `user_id, kind, name, email, email_confirmed, created`

const (
	queryInsertIdentity = `
INSERT INTO identities (user_id, kind, name, email, email_confirmed, created)
	VALUES ($1, $2, $3, $4, FALSE, $5)`

	queryInsertExternalLogin = `
INSERT INTO external_logins (user_id, provider, provider_id, linked)
	VALUES ($1, $2, $3, $4)`

	// external_logins rows are removed by the cascading foreign key.
	queryDeleteIdentity = `
DELETE FROM identities WHERE user_id = $1`

	queryFindByID = `
SELECT ` + identityColumns + `
	FROM identities
	WHERE user_id = $1`

	queryFindByEmail = `
SELECT ` + identityColumns + `
	FROM identities
	WHERE email = $1`

	queryFindByName = `
SELECT ` + identityColumns + `
	FROM identities
	WHERE name = $1`

	queryFindByLink = `
SELECT i.user_id, i.kind, i.name, i.email, i.email_confirmed, i.created
	FROM external_logins e
	JOIN identities i ON i.user_id = e.user_id
	WHERE e.provider = $1
		AND e.provider_id = $2`

	queryLinkedProviders = `
SELECT provider, provider_id, linked
	FROM external_logins
	WHERE user_id = $1
	ORDER BY provider, provider_id`
)

type statements struct {
	insertIdentity      *sql.Stmt
	insertExternalLogin *sql.Stmt
	deleteIdentity      *sql.Stmt
	findByID            *sql.Stmt
	findByEmail         *sql.Stmt
	findByName          *sql.Stmt
	findByLink          *sql.Stmt
	linkedProviders     *sql.Stmt
}

func prepareStatements(ctx context.Context, db *sql.DB, d Dialect) (*statements, error) {
	st := &statements{}
	targets := []struct {
		name  string
		query string
		dst   **sql.Stmt
	}{
		{"insert identity", queryInsertIdentity, &st.insertIdentity},
		{"insert external login", queryInsertExternalLogin, &st.insertExternalLogin},
		{"delete identity", queryDeleteIdentity, &st.deleteIdentity},
		{"find by id", queryFindByID, &st.findByID},
		{"find by email", queryFindByEmail, &st.findByEmail},
		{"find by name", queryFindByName, &st.findByName},
		{"find by link", queryFindByLink, &st.findByLink},
		{"linked providers", queryLinkedProviders, &st.linkedProviders},
	}

	for _, t := range targets {
		stmt, err := db.PrepareContext(ctx, rebind(d, t.query))
		if err != nil {
			_ = st.close()
			return nil, fmt.Errorf("prepare %s: %w", t.name, err)
		}
		*t.dst = stmt
	}
	return st, nil
}

func (st *statements) close() error {
	var errs []error
	for _, stmt := range []*sql.Stmt{
		st.insertIdentity,
		st.insertExternalLogin,
		st.deleteIdentity,
		st.findByID,
		st.findByEmail,
		st.findByName,
		st.findByLink,
		st.linkedProviders,
	} {
		if stmt != nil {
			errs = append(errs, stmt.Close())
		}
	}
	return errors.Join(errs...)
}
