package sqlite

import (
	"database/sql"
	"strings"

	"github.com/aussiebroadwan/identity/internal/identity/store/sqlstore"
	_ "modernc.org/sqlite"
)

// NewStore opens the SQLite database at dsn. Foreign keys are enforced on
// every pooled connection. In-memory databases are pinned to a single
// connection since each connection would otherwise see its own database.
func NewStore(dsn string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}

	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}

	return sqlstore.New(db, Dialect{}), nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
