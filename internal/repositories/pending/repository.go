package pending

import (
	"context"

	"github.com/dmitrijs2005/moviecp/internal/models"
)

type Repository interface {
	// Create inserts a new pending file. Inserting a source path that is
	// already tracked returns common.ErrAlreadyTracked and changes nothing.
	Create(ctx context.Context, file *models.PendingFile) error

	GetByID(ctx context.Context, id string) (*models.PendingFile, error)
	ListPending(ctx context.Context) ([]*models.PendingFile, error)
	CountPending(ctx context.Context) (int, error)

	// MarkProcessing atomically moves a record from pending to processing.
	// Returns common.ErrInvalidState when the record is in any other status,
	// which is the conflict gate against concurrent approvals.
	MarkProcessing(ctx context.Context, id string) error

	MarkFailed(ctx context.Context, id string, errorMessage string) error
	Delete(ctx context.Context, id string) error
}
