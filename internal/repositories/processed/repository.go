package processed

import (
	"context"

	"github.com/dmitrijs2005/moviecp/internal/models"
)

type Repository interface {
	// Create inserts a terminal history record. Records are immutable after
	// creation; there are no update or delete operations.
	Create(ctx context.Context, file *models.ProcessedFile) error

	List(ctx context.Context, limit int) ([]*models.ProcessedFile, error)
	CountByAction(ctx context.Context, action string) (int, error)
}
