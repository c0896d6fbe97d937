package users

import (
	"context"

	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// Repository persists user accounts and the set of note ids each user owns.
// AddNote and RemoveNote are single atomic statements, so concurrent note
// creation by the same user never loses an id.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AddNote(ctx context.Context, userID, noteID string) error
	RemoveNote(ctx context.Context, userID, noteID string) error
}
