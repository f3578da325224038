package pending

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func samplePending() *models.PendingFile {
	return &models.PendingFile{
		ID:         "8b6e2f1a-0000-0000-0000-000000000001",
		SourcePath: "/downloads/Movie.2020.mkv",
		Filename:   "Movie.2020.mkv",
		SizeBytes:  734003200,
		DetectedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Status:     models.StatusPending,
		Metadata:   `{"extension":".mkv"}`,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := samplePending()

	q := `(?s)^INSERT\s+INTO\s+pending_files\b.*ON\s+CONFLICT\s*\(source_path\)\s*DO\s+NOTHING`

	mock.ExpectExec(q).
		WithArgs(f.ID, f.SourcePath, f.Filename, f.SizeBytes, f.DetectedAt, f.Status, f.Metadata).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicatePathIsAlreadyTracked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := samplePending()

	q := `(?s)^INSERT\s+INTO\s+pending_files\b.*ON\s+CONFLICT\s*\(source_path\)\s*DO\s+NOTHING`

	mock.ExpectExec(q).
		WithArgs(f.ID, f.SourcePath, f.Filename, f.SizeBytes, f.DetectedAt, f.Status, f.Metadata).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), f)
	if !errors.Is(err, common.ErrAlreadyTracked) {
		t.Fatalf("want ErrAlreadyTracked, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM pending_files WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := samplePending()
	rows := sqlmock.NewRows([]string{
		"id", "source_path", "filename", "size_bytes", "detected_at", "status", "error_message", "metadata",
	}).AddRow(f.ID, f.SourcePath, f.Filename, f.SizeBytes, f.DetectedAt, f.Status, "", f.Metadata)

	mock.ExpectQuery(`SELECT .* FROM pending_files WHERE id=\$1`).
		WithArgs(f.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.SourcePath != f.SourcePath || got.Status != models.StatusPending {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestMarkProcessing_ConflictWhenNotPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE pending_files SET status='processing' WHERE id=\$1 AND status='pending'`).
		WithArgs("id1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkProcessing(context.Background(), "id1")
	if !errors.Is(err, common.ErrInvalidState) {
		t.Fatalf("want ErrInvalidState, got %v", err)
	}
}

func TestMarkProcessing_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE pending_files SET status='processing' WHERE id=\$1 AND status='pending'`).
		WithArgs("id1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkProcessing(context.Background(), "id1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMarkFailed_SetsErrorMessage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE pending_files SET status='failed', error_message=\$2 WHERE id=\$1`).
		WithArgs("id1", "renamer failed: timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), "id1", "renamer failed: timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM pending_files WHERE id=\$1`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListPending_ScansAllRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "source_path", "filename", "size_bytes", "detected_at", "status", "error_message", "metadata",
	}).
		AddRow("a", "/d/a.mkv", "a.mkv", int64(1), now, "pending", "", "{}").
		AddRow("b", "/d/b.mkv", "b.mkv", int64(2), now, "pending", "", "{}")

	mock.ExpectQuery(`(?s)SELECT .* FROM pending_files\s+WHERE status='pending'`).
		WillReturnRows(rows)

	got, err := repo.ListPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].Filename != "b.mkv" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestCountPending(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM pending_files WHERE status='pending'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}
