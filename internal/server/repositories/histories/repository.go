package histories

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository stores note revision logs. Logs are append-only: there is no
// operation that rewrites or removes an entry.
type Repository interface {
	Create(ctx context.Context, entries []models.HistoryEntry) (*models.NoteHistory, error)
	GetByID(ctx context.Context, id string) (*models.NoteHistory, error)
	Append(ctx context.Context, id string, entry models.HistoryEntry) error
}
