// Package workflow orchestrates the disposition of pending files: renaming,
// version resolution, transfer to the destination share, and the status
// bookkeeping around all of it.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/moviecp/internal/common"
	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/dbx"
	"github.com/dmitrijs2005/moviecp/internal/logging"
	"github.com/dmitrijs2005/moviecp/internal/models"
	"github.com/dmitrijs2005/moviecp/internal/repositories/repomanager"
)

// Renamer normalizes a filename via the external tool. Returns the new
// basename, the tool's raw output, and an error when the tool fails.
type Renamer interface {
	Rename(ctx context.Context, sourcePath string) (string, string, error)
}

// Resolver picks a collision-free filename for the target directory.
type Resolver interface {
	Resolve(ctx context.Context, candidate string, targetDir string) (string, int)
}

// Copier moves bytes to the destination share and cleans up sources.
type Copier interface {
	Copy(ctx context.Context, sourcePath string, filename string) (string, error)
	DeleteSource(ctx context.Context, sourcePath string) error
}

// Result describes the outcome of an approve or reject operation. Operations
// never fail with a transport-level error for domain problems; callers check
// Success and Error instead.
type Result struct {
	Success          bool   `json:"success"`
	OriginalFilename string `json:"original_filename"`
	FinalFilename    string `json:"final_filename,omitempty"`
	FinalPath        string `json:"final_path,omitempty"`
	VersionNumber    int    `json:"version_number,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Stats is a snapshot of queue and history counters.
type Stats struct {
	Pending        int `json:"pending"`
	Approved       int `json:"approved"`
	Rejected       int `json:"rejected"`
	TotalProcessed int `json:"total_processed"`
}

type Service struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	renamer  Renamer
	resolver Resolver
	copier   Copier
	config   *config.Config
	logger   logging.Logger
}

func NewService(db *sql.DB, rm repomanager.RepositoryManager, renamer Renamer,
	resolver Resolver, copier Copier, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		db:       db,
		rm:       rm,
		renamer:  renamer,
		resolver: resolver,
		copier:   copier,
		config:   cfg,
		logger:   logger.With("module", "workflow"),
	}
}

// Approve runs the full pipeline for a pending file: claim it, rename it,
// resolve the target name, copy it to the share, and record the history. The
// returned Result always describes what happened; err is non-nil only for
// lookup and state-gate failures (not found, not pending).
func (s *Service) Approve(ctx context.Context, id string, deleteSource bool) (*Result, error) {

	pf, err := s.rm.Pending(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// conflict gate: the first caller wins, everyone else gets ErrInvalidState
	if err := s.rm.Pending(s.db).MarkProcessing(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "approving file", "id", id, "file", pf.Filename)

	result := &Result{OriginalFilename: pf.Filename}

	newName, renamerOutput, err := s.renamer.Rename(ctx, pf.SourcePath)
	if err != nil {
		return s.fail(ctx, pf, result, err), nil
	}

	// the tool renamed the file in place
	newSourcePath := filepath.Join(filepath.Dir(pf.SourcePath), newName)

	targetDir := filepath.Join(s.config.MountPath, s.config.TargetFolder)
	finalName, version := s.resolver.Resolve(ctx, newName, targetDir)

	finalPath, err := s.copier.Copy(ctx, newSourcePath, finalName)
	if err != nil {
		return s.fail(ctx, pf, result, err), nil
	}

	record := &models.ProcessedFile{
		ID:               uuid.NewString(),
		SourcePath:       pf.SourcePath,
		OriginalFilename: pf.Filename,
		FinalPath:        finalPath,
		FinalFilename:    finalName,
		SizeBytes:        pf.SizeBytes,
		DetectedAt:       pf.DetectedAt,
		ProcessedAt:      time.Now(),
		Action:           models.ActionApproved,
		VersionNumber:    version,
		RenamerOutput:    renamerOutput,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Processed(tx).Create(ctx, record); err != nil {
			return err
		}
		return s.rm.Pending(tx).Delete(ctx, id)
	})
	if err != nil {
		return s.fail(ctx, pf, result, fmt.Errorf("recording approval: %w", err)), nil
	}

	if deleteSource {
		// the copy is already verified and recorded; a stuck source file is
		// only worth a warning
		if err := s.copier.DeleteSource(ctx, newSourcePath); err != nil {
			s.logger.Warn(ctx, "could not delete source after approval", "error", err)
		}
	}

	result.Success = true
	result.FinalFilename = finalName
	result.FinalPath = finalPath
	result.VersionNumber = version

	s.logger.Info(ctx, "file approved", "id", id, "final", finalName, "version", version)
	return result, nil
}

// fail records the failure on the pending record (best effort) and fills the
// result. The record stays visible with status failed rather than vanishing.
func (s *Service) fail(ctx context.Context, pf *models.PendingFile, result *Result, cause error) *Result {

	s.logger.Error(ctx, "approval failed", "id", pf.ID, "file", pf.Filename, "error", cause)

	if err := s.rm.Pending(s.db).MarkFailed(ctx, pf.ID, cause.Error()); err != nil {
		s.logger.Error(ctx, "could not mark file as failed", "id", pf.ID, "error", err)
	}

	result.Error = cause.Error()
	return result
}

// Reject records a terminal rejection for a pending file. Unlike Approve it
// accepts records in any non-terminal status, so a previously failed file can
// still be dismissed.
func (s *Service) Reject(ctx context.Context, id string, deleteSource bool) (*Result, error) {

	pf, err := s.rm.Pending(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &models.ProcessedFile{
		ID:               uuid.NewString(),
		SourcePath:       pf.SourcePath,
		OriginalFilename: pf.Filename,
		SizeBytes:        pf.SizeBytes,
		DetectedAt:       pf.DetectedAt,
		ProcessedAt:      time.Now(),
		Action:           models.ActionRejected,
		Notes:            "Rejected by user",
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.rm.Processed(tx).Create(ctx, record); err != nil {
			return err
		}
		return s.rm.Pending(tx).Delete(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("recording rejection: %w", err)
	}

	if deleteSource {
		if err := s.copier.DeleteSource(ctx, pf.SourcePath); err != nil {
			s.logger.Warn(ctx, "could not delete source after rejection", "error", err)
		}
	}

	s.logger.Info(ctx, "file rejected", "id", id, "file", pf.Filename)

	return &Result{Success: true, OriginalFilename: pf.Filename}, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*models.PendingFile, error) {
	return s.rm.Pending(s.db).ListPending(ctx)
}

func (s *Service) History(ctx context.Context, limit int) ([]*models.ProcessedFile, error) {
	return s.rm.Processed(s.db).List(ctx, limit)
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {

	pending, err := s.rm.Pending(s.db).CountPending(ctx)
	if err != nil {
		return nil, err
	}

	approved, err := s.rm.Processed(s.db).CountByAction(ctx, models.ActionApproved)
	if err != nil {
		return nil, err
	}

	rejected, err := s.rm.Processed(s.db).CountByAction(ctx, models.ActionRejected)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Pending:        pending,
		Approved:       approved,
		Rejected:       rejected,
		TotalProcessed: approved + rejected,
	}, nil
}

// IsNotFound reports whether err means the record does not exist, so HTTP
// handlers can map it to a 404 without importing the repository layer.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}

// IsConflict reports whether err means another caller already claimed the
// record.
func IsConflict(err error) bool {
	return errors.Is(err, common.ErrInvalidState)
}
