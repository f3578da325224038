// Package repomanager wires repositories to a database handle. Services hold
// one manager plus a *sql.DB and bind repositories either to the pooled
// connection or to a transaction (dbx.WithTx) per call.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moviecp/internal/dbx"
	"github.com/dmitrijs2005/moviecp/internal/repositories/pending"
	"github.com/dmitrijs2005/moviecp/internal/repositories/processed"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Pending(db dbx.DBTX) pending.Repository
	Processed(db dbx.DBTX) processed.Repository
}
