package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/identity/internal/identity/domain"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/slogx"
	"github.com/google/uuid"
)

type identitiesRepo struct {
	s *Store
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (domain.Identity, error) {
	var (
		identity domain.Identity
		email    sql.NullString
	)
	if err := row.Scan(
		&identity.UserID,
		&identity.Kind,
		&identity.Name,
		&email,
		&identity.IsEmailConfirmed,
		&identity.Creation,
	); err != nil {
		return domain.Identity{}, err
	}
	if email.Valid {
		identity.Email = &email.String
	}
	identity.Creation = identity.Creation.UTC()
	return identity, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *identitiesRepo) CreateUser(
	ctx context.Context,
	userID uuid.UUID,
	name string,
	email *string,
	login *domain.ExternalLogin,
) (domain.Identity, error) {
	log := slogx.FromContext(ctx)

	st, err := r.s.statements(ctx)
	if err != nil {
		return domain.Identity{}, err
	}

	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("begin create user: %w", err)
	}

	created := r.s.timestamp()
	if _, err := tx.StmtContext(ctx, st.insertIdentity).ExecContext(ctx,
		userID, domain.IdentityKindUser, name, nullString(email), created,
	); err != nil {
		err = r.s.mapError("insert identity", err)
		if isConflict(err) {
			log.Info("identity conflict, rolling back user creation",
				"user_id", userID, "name", name, "err", err)
		}
		return domain.Identity{}, rollback(tx, err)
	}

	if login != nil {
		if _, err := tx.StmtContext(ctx, st.insertExternalLogin).ExecContext(ctx,
			userID, login.Provider, login.ProviderID, created,
		); err != nil {
			err = r.s.mapError("insert external login", err)
			if isConflict(err) {
				log.Info("external login conflict, rolling back user creation",
					"user_id", userID, "provider", login.Provider, "err", err)
			}
			return domain.Identity{}, rollback(tx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Identity{}, rollback(tx, fmt.Errorf("commit create user: %w", err))
	}

	return domain.Identity{
		UserID:           userID,
		Kind:             domain.IdentityKindUser,
		Name:             name,
		Email:            email,
		IsEmailConfirmed: false,
		Creation:         created,
	}, nil
}

func (r *identitiesRepo) Find(ctx context.Context, by store.FindIdentity) (domain.Identity, error) {
	st, err := r.s.statements(ctx)
	if err != nil {
		return domain.Identity{}, err
	}

	var row *sql.Row
	switch by.Kind {
	case store.FindByUserID:
		row = st.findByID.QueryRowContext(ctx, by.ID)
	case store.FindByEmail:
		row = st.findByEmail.QueryRowContext(ctx, by.Value)
	case store.FindByName:
		row = st.findByName.QueryRowContext(ctx, by.Value)
	case store.FindByExternalLogin:
		row = st.findByLink.QueryRowContext(ctx, by.Login.Provider, by.Login.ProviderID)
	default:
		return domain.Identity{}, fmt.Errorf("find identity: invalid criteria %d", by.Kind)
	}

	identity, err := scanIdentity(row)
	if err != nil {
		return domain.Identity{}, r.s.mapError("find identity", err)
	}
	return identity, nil
}

func (r *identitiesRepo) Search(ctx context.Context, search store.SearchIdentity) ([]domain.Identity, error) {
	query, args := buildSearch(r.s.dialect, search)
	slogx.FromContext(ctx).Debug("identity search", "query", query, "args", len(args))

	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.s.mapError("search identities", err)
	}
	defer rows.Close()

	identities := make([]domain.Identity, 0, search.Limit())
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.s.mapError("search identities", err)
	}
	return identities, nil
}

func (r *identitiesRepo) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	st, err := r.s.statements(ctx)
	if err != nil {
		return err
	}
	if _, err := st.deleteIdentity.ExecContext(ctx, userID); err != nil {
		return r.s.mapError("delete identity", err)
	}
	return nil
}

func (r *identitiesRepo) LinkUser(ctx context.Context, userID uuid.UUID, login domain.ExternalLogin) error {
	st, err := r.s.statements(ctx)
	if err != nil {
		return err
	}
	if _, err := st.insertExternalLogin.ExecContext(ctx,
		userID, login.Provider, login.ProviderID, r.s.timestamp(),
	); err != nil {
		return r.s.mapError("link user", err)
	}
	return nil
}

func (r *identitiesRepo) LinkedProviders(ctx context.Context, userID uuid.UUID) ([]domain.ExternalLoginLink, error) {
	st, err := r.s.statements(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := st.linkedProviders.QueryContext(ctx, userID)
	if err != nil {
		return nil, r.s.mapError("linked providers", err)
	}
	defer rows.Close()

	var links []domain.ExternalLoginLink
	for rows.Next() {
		var link domain.ExternalLoginLink
		if err := rows.Scan(&link.Provider, &link.ProviderID, &link.LinkedAt); err != nil {
			return nil, fmt.Errorf("scan external login: %w", err)
		}
		link.LinkedAt = link.LinkedAt.UTC()
		links = append(links, link)
	}
	return links, rows.Err()
}

func isConflict(err error) bool {
	return errors.Is(err, store.ErrUserIDConflict) ||
		errors.Is(err, store.ErrNameConflict) ||
		errors.Is(err, store.ErrLinkEmailConflict) ||
		errors.Is(err, store.ErrLinkProviderConflict)
}
