package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
)

// QueryService serves paginated, newest-first views of all notes. Plain
// listings are cached; searches are not.
type QueryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       ListingCache
}

func NewQueryService(db *sql.DB, m repomanager.RepositoryManager, cache ListingCache) *QueryService {
	return &QueryService{db: db, repomanager: m, cache: cache}
}

func (s *QueryService) List(ctx context.Context, page, perPage int) (*models.NotePage, error) {
	if err := validatePaging(page, perPage); err != nil {
		return nil, err
	}

	if p, ok := s.cache.Get(page, perPage); ok {
		return p, nil
	}

	gen := s.cache.Generation()
	p, err := s.page(ctx, "", page, perPage)
	if err != nil {
		return nil, err
	}
	s.cache.Set(gen, page, perPage, p)

	return p, nil
}

// Search matches text literally and case-insensitively against title or
// content. Empty text matches every note.
func (s *QueryService) Search(ctx context.Context, text string, page, perPage int) (*models.NotePage, error) {
	if err := validatePaging(page, perPage); err != nil {
		return nil, err
	}
	return s.page(ctx, text, page, perPage)
}

func (s *QueryService) page(ctx context.Context, search string, page, perPage int) (*models.NotePage, error) {
	repo := s.repomanager.Notes(s.db)

	total, err := repo.Count(ctx, search)
	if err != nil {
		return nil, common.NewStorageError("count notes", err)
	}

	// A page whose offset does not fit in an int lies past any real result.
	if page-1 > (math.MaxInt-perPage)/perPage {
		return &models.NotePage{Notes: []*models.Note{}, TotalItems: total, CurrentPage: page}, nil
	}
	offset := (page - 1) * perPage

	notes, err := repo.List(ctx, search, offset, perPage)
	if err != nil {
		return nil, common.NewStorageError("list notes", err)
	}
	if notes == nil {
		notes = []*models.Note{}
	}

	return &models.NotePage{
		Notes:       notes,
		TotalItems:  total,
		CurrentPage: page,
		HasNext:     total-offset > perPage,
	}, nil
}

func validatePaging(page, perPage int) error {
	var fields []common.FieldViolation
	if page < 1 {
		fields = append(fields, common.FieldViolation{Field: "page", Tag: "min", Message: "page must be at least 1"})
	}
	if perPage < 1 {
		fields = append(fields, common.FieldViolation{Field: "perPage", Tag: "min", Message: "perPage must be at least 1"})
	}
	if perPage > common.MaxPerPage {
		fields = append(fields, common.FieldViolation{Field: "perPage", Tag: "max",
			Message: fmt.Sprintf("perPage must be at most %d", common.MaxPerPage)})
	}
	if fields != nil {
		return common.NewValidationError("invalid pagination", fields...)
	}
	return nil
}
