// Package repomanager hands out repositories bound to either a *sql.DB or a
// transaction, and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"userhub/internal/dbx"
	"userhub/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
