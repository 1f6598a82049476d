package repomanager

import (
	"context"
	"database/sql"

	"github.com/codesleeps/palmers/internal/dbx"
	"github.com/codesleeps/palmers/internal/server/repositories/competitors"
	"github.com/codesleeps/palmers/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Competitors(db dbx.DBTX) competitors.Repository
}
