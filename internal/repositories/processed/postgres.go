package processed

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/moviecp/internal/dbx"
	"github.com/dmitrijs2005/moviecp/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.ProcessedFile) error {

	// Rejected records carry empty final path/filename; store them as NULL
	// so the schema reflects "no destination" rather than an empty string.
	query :=
		`INSERT INTO processed_files
			(id, source_path, original_filename, final_path, final_filename,
			 size_bytes, detected_at, processed_at, action, version_number, renamer_output, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
		`

	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.SourcePath, file.OriginalFilename, file.FinalPath, file.FinalFilename,
		file.SizeBytes, file.DetectedAt, file.ProcessedAt, file.Action, file.VersionNumber,
		file.RenamerOutput, file.Notes)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}

	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.ProcessedFile, error) {

	query :=
		`SELECT id, source_path, original_filename,
			COALESCE(final_path, ''), COALESCE(final_filename, ''),
			size_bytes, detected_at, processed_at, action, version_number,
			COALESCE(renamer_output, ''), COALESCE(notes, '')
		FROM processed_files
		ORDER BY processed_at DESC
		LIMIT $1
		`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select processed files: %w", err)
	}
	defer rows.Close()

	var result []*models.ProcessedFile
	for rows.Next() {
		var item = models.ProcessedFile{}
		err := rows.Scan(&item.ID, &item.SourcePath, &item.OriginalFilename,
			&item.FinalPath, &item.FinalFilename, &item.SizeBytes,
			&item.DetectedAt, &item.ProcessedAt, &item.Action, &item.VersionNumber,
			&item.RenamerOutput, &item.Notes)
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

func (r *PostgresRepository) CountByAction(ctx context.Context, action string) (int, error) {

	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_files WHERE action=$1`, action).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count processed files: %w", err)
	}
	return n, nil
}
