package notes

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository persists notes. List and Count share one filter: an empty
// search matches every note, otherwise title or content must contain the
// search text case-insensitively.
type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	GetByID(ctx context.Context, id string) (*models.Note, error)
	// GetForUpdate loads the note row and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, search string) (int, error)
	List(ctx context.Context, search string, offset, limit int) ([]*models.Note, error)
}
