package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/dbx"
	"github.com/dmitrijs2005/moviecp/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.PendingFile) error {

	query :=
		`INSERT INTO pending_files (id, source_path, filename, size_bytes, detected_at, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_path) DO NOTHING
		`

	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.SourcePath, file.Filename, file.SizeBytes, file.DetectedAt, file.Status, file.Metadata)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if n == 0 {
		return common.ErrAlreadyTracked
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.PendingFile, error) {

	query :=
		`SELECT id, source_path, filename, size_bytes, detected_at, status,
			COALESCE(error_message, ''), COALESCE(metadata, '')
		FROM pending_files WHERE id=$1
		`

	result := &models.PendingFile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&result.ID, &result.SourcePath, &result.Filename, &result.SizeBytes,
		&result.DetectedAt, &result.Status, &result.ErrorMessage, &result.Metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending file: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ListPending(ctx context.Context) ([]*models.PendingFile, error) {

	query :=
		`SELECT id, source_path, filename, size_bytes, detected_at, status,
			COALESCE(error_message, ''), COALESCE(metadata, '')
		FROM pending_files
		WHERE status='pending'
		ORDER BY detected_at DESC
		`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending files: %w", err)
	}
	defer rows.Close()

	var result []*models.PendingFile
	for rows.Next() {
		var item = models.PendingFile{}
		err := rows.Scan(&item.ID, &item.SourcePath, &item.Filename, &item.SizeBytes,
			&item.DetectedAt, &item.Status, &item.ErrorMessage, &item.Metadata)
		if err != nil {
			return nil, err
		}
		result = append(result, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) CountPending(ctx context.Context) (int, error) {

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_files WHERE status='pending'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending files: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkProcessing(ctx context.Context, id string) error {

	query := `UPDATE pending_files SET status='processing' WHERE id=$1 AND status='pending'`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if n == 0 {
		return common.ErrInvalidState
	}

	return nil
}

func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {

	query := `UPDATE pending_files SET status='failed', error_message=$2 WHERE id=$1`

	res, err := r.db.ExecContext(ctx, query, id, errorMessage)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {

	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending file: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}
