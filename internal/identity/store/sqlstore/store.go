package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/store"
)

// Store implements store.Store on top of database/sql. The fixed statements
// are prepared once per instance and shared by all callers.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	mu    sync.Mutex
	stmts *statements
}

var _ store.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for server-assigned timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the dialect the store was built with.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) Identities() store.Identities { return &identitiesRepo{s: s} }

// ApplyMigrations migrates the schema and prepares the statements so that a
// broken schema is reported at startup rather than on the first request.
func (s *Store) ApplyMigrations() error {
	if err := s.dialect.ApplyMigrations(s.db); err != nil {
		return fmt.Errorf("%s migrations: %w", s.dialect.Name(), err)
	}
	_, err := s.statements(context.Background())
	return err
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	s.mu.Lock()
	stmts := s.stmts
	s.stmts = nil
	s.mu.Unlock()

	var errs []error
	if stmts != nil {
		errs = append(errs, stmts.close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// statements returns the prepared statements, preparing them on first use.
// A failed preparation is not cached.
func (s *Store) statements(ctx context.Context) (*statements, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stmts != nil {
		return s.stmts, nil
	}
	stmts, err := prepareStatements(ctx, s.db, s.dialect)
	if err != nil {
		return nil, err
	}
	s.stmts = stmts
	return stmts, nil
}

// timestamp returns a server-assigned timestamp at the precision every
// supported engine round-trips.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// mapError translates driver errors into store errors. Constraint violations
// become the matching conflict error; anything else is returned wrapped.
func (s *Store) mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	switch s.dialect.Constraint(err) {
	case ConstraintIdentityKey:
		return store.ErrUserIDConflict
	case ConstraintName:
		return store.ErrNameConflict
	case ConstraintEmail:
		return store.ErrLinkEmailConflict
	case ConstraintProviderID:
		return store.ErrLinkProviderConflict
	case ConstraintUserReference:
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rollback aborts tx and returns cause. A rollback failure is joined to cause
// so neither is lost.
func rollback(tx *sql.Tx, cause error) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Join(cause, fmt.Errorf("rollback: %w", err))
	}
	return cause
}
