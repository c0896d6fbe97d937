// Package services contains server-side business logic: the note lifecycle
// with its revision history, paginated listing and search, and user
// registration and login.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/validation"
)

// ListingInvalidator drops cached note listings.
type ListingInvalidator interface {
	Invalidate()
}

// ListingCache caches listing pages; see cache.ListingCache.
type ListingCache interface {
	Generation() uint64
	Get(page, perPage int) (*models.NotePage, bool)
	Set(gen uint64, page, perPage int, p *models.NotePage)
}

// ImageReleaser deletes an image that is no longer referenced.
type ImageReleaser interface {
	Release(ctx context.Context, key string) error
}

type noteInput struct {
	Title   string `json:"title" validate:"notefield"`
	Content string `json:"content" validate:"notefield"`
}

func validateNote(title, content string) (string, string, error) {
	in := noteInput{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	if err := validation.Struct(in); err != nil {
		return "", "", err
	}
	return in.Title, in.Content, nil
}

// storageError lifts err into a storage error unless it already carries a
// kind.
func storageError(msg string, err error) error {
	var ce *common.Error
	if errors.As(err, &ce) {
		return err
	}
	return common.NewStorageError(msg, err)
}
