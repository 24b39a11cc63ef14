package repomanager

import (
	"context"
	"database/sql"

	"github.com/ShubhamGupta2412/vaultboard/internal/dbx"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/accesslogs"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/entries"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/repositories/principals"
)

// RepositoryManager vends repositories bound to a handle, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Principals(db dbx.DBTX) principals.Repository
	Entries(db dbx.DBTX) entries.Repository
	AccessLogs(db dbx.DBTX) accesslogs.Repository
}
