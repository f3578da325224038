package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/moviecp/internal/dbx"
	"github.com/dmitrijs2005/moviecp/internal/migrations"
	"github.com/dmitrijs2005/moviecp/internal/repositories/pending"
	"github.com/dmitrijs2005/moviecp/internal/repositories/processed"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Pending(db dbx.DBTX) pending.Repository {
	return pending.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Processed(db dbx.DBTX) processed.Repository {
	return processed.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
