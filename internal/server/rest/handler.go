// Package rest exposes the notes API over HTTP using chi.
package rest

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/images"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

type NoteStore interface {
	Create(ctx context.Context, creatorID, title, content, imageRef string) (*models.Note, *models.UserSummary, error)
	Get(ctx context.Context, noteID string) (*models.Note, error)
	Update(ctx context.Context, noteID, requesterID, title, content, imageRef string) (*models.Note, *models.NoteHistory, error)
	Delete(ctx context.Context, noteID, requesterID string) (*models.Note, error)
}

type NoteQuery interface {
	List(ctx context.Context, page, perPage int) (*models.NotePage, error)
	Search(ctx context.Context, text string, page, perPage int) (*models.NotePage, error)
}

type Accounts interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// Handler holds the collaborators shared by all endpoints.
type Handler struct {
	notes        NoteStore
	query        NoteQuery
	accounts     Accounts
	images       images.Store
	logger       logging.Logger
	maxImageSize int64
}

func NewHandler(notes NoteStore, query NoteQuery, accounts Accounts, store images.Store,
	logger logging.Logger, maxImageSize int64) *Handler {
	return &Handler{
		notes:        notes,
		query:        query,
		accounts:     accounts,
		images:       store,
		logger:       logger.With("module", "rest"),
		maxImageSize: maxImageSize,
	}
}

func parseNoteID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", validationError("noteId", "uuid", "noteId must be a valid id")
	}
	return id.String(), nil
}

func parsePaging(page, perPage string) (int, int, error) {
	p, err := intParam("page", page, common.DefaultPage)
	if err != nil {
		return 0, 0, err
	}
	pp, err := intParam("perPage", perPage, common.DefaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	return p, pp, nil
}

func intParam(name, raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validationError(name, "int", name+" must be an integer")
	}
	return v, nil
}
