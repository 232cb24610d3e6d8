package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
