package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/events"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophnotes/internal/server/tasks"
)

// NoteService owns the note lifecycle. Every mutation runs in one
// transaction; the note row is locked for updates and deletes, so edits of
// the same note are serialized and its revision log is created at most once.
// Notifications, cache invalidation and image cleanup happen only after the
// transaction commits.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cache       ListingInvalidator
	publisher   events.Publisher
	releaser    ImageReleaser
	dispatcher  tasks.Dispatcher
	logger      logging.Logger
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, cache ListingInvalidator,
	publisher events.Publisher, releaser ImageReleaser, dispatcher tasks.Dispatcher, logger logging.Logger) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: m,
		cache:       cache,
		publisher:   publisher,
		releaser:    releaser,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Create stores a new note owned by creatorID and records it in the
// creator's note set. A missing or unknown creator is a storage error.
// imageRef, when set, must point to a freshly stored image; it is released
// if the note cannot be created.
func (s *NoteService) Create(ctx context.Context, creatorID, title, content, imageRef string) (*models.Note, *models.UserSummary, error) {
	title, content, err := validateNote(title, content)
	if err != nil {
		s.releaseImage(imageRef)
		return nil, nil, err
	}

	if creatorID == "" {
		s.releaseImage(imageRef)
		return nil, nil, common.NewStorageError("creator is required", nil)
	}

	note := &models.Note{Title: title, Content: content, ImageURL: imageRef, CreatorID: creatorID}
	var creator *models.UserSummary

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)

		user, err := users.GetByID(ctx, creatorID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewStorageError("creator not found", err)
			}
			return storageError("load creator", err)
		}

		if _, err := s.repomanager.Notes(tx).Create(ctx, note); err != nil {
			return storageError("create note", err)
		}

		if err := users.AddNote(ctx, creatorID, note.ID); err != nil {
			return storageError("link note to creator", err)
		}

		creator = &models.UserSummary{ID: user.ID, Name: user.Name}
		return nil
	})
	if err != nil {
		s.releaseImage(imageRef)
		return nil, nil, storageError("create note", err)
	}

	note.Creator = creator
	s.afterCommit(events.Created(note), "")

	return note, creator, nil
}

// Get returns the note with its revision log, if any.
func (s *NoteService) Get(ctx context.Context, noteID string) (*models.Note, error) {
	note, err := s.repomanager.Notes(s.db).GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("could not find note %s", noteID)
		}
		return nil, storageError("load note", err)
	}

	if note.NoteHistoryID != nil {
		h, err := s.repomanager.Histories(s.db).GetByID(ctx, *note.NoteHistoryID)
		if err != nil {
			return nil, storageError("load note history", err)
		}
		note.History = h
	}

	return note, nil
}

// Update replaces the note's title, content and optionally its image, and
// records the revision. The first edit creates the log with the new version
// followed by the replaced one; later edits append only the new version.
// An empty imageRef keeps the current image. A replaced image is released
// after commit on a best-effort basis; a new imageRef is released if the
// update fails.
func (s *NoteService) Update(ctx context.Context, noteID, requesterID, title, content, imageRef string) (*models.Note, *models.NoteHistory, error) {
	title, content, err := validateNote(title, content)
	if err != nil {
		s.releaseImage(imageRef)
		return nil, nil, err
	}

	var (
		note      *models.Note
		history   *models.NoteHistory
		prevImage string
		oldImage  string
	)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		notes := s.repomanager.Notes(tx)
		histories := s.repomanager.Histories(tx)

		var err error
		note, err = s.lockOwned(ctx, tx, noteID, requesterID)
		if err != nil {
			return err
		}

		prevImage = note.ImageURL
		if imageRef != "" && imageRef != prevImage {
			if note.HasImage() {
				oldImage = prevImage
			}
			note.ImageURL = imageRef
		}

		revision := models.HistoryEntry{Title: title, Content: content}
		if note.NoteHistoryID == nil {
			history, err = histories.Create(ctx, []models.HistoryEntry{
				revision,
				{Title: note.Title, Content: note.Content},
			})
			if err != nil {
				return storageError("create note history", err)
			}
			note.NoteHistoryID = &history.ID
		} else {
			if err := histories.Append(ctx, *note.NoteHistoryID, revision); err != nil {
				return storageError("append note history", err)
			}
			if history, err = histories.GetByID(ctx, *note.NoteHistoryID); err != nil {
				return storageError("load note history", err)
			}
		}

		note.Title = title
		note.Content = content
		if _, err := notes.Update(ctx, note); err != nil {
			return storageError("update note", err)
		}

		creator, err := s.repomanager.Users(tx).GetByID(ctx, note.CreatorID)
		if err != nil {
			return storageError("load creator", err)
		}
		note.Creator = &models.UserSummary{ID: creator.ID, Name: creator.Name}

		return nil
	})
	if err != nil {
		if imageRef != prevImage {
			s.releaseImage(imageRef)
		}
		return nil, nil, storageError("update note", err)
	}

	note.History = history
	s.afterCommit(events.Updated(note), oldImage)

	return note, history, nil
}

// Delete removes the note and unlinks it from its creator. The revision log
// is kept. The attached image is released after commit.
func (s *NoteService) Delete(ctx context.Context, noteID, requesterID string) (*models.Note, error) {
	var note *models.Note

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		note, err = s.lockOwned(ctx, tx, noteID, requesterID)
		if err != nil {
			return err
		}

		if err := s.repomanager.Notes(tx).Delete(ctx, noteID); err != nil {
			return storageError("delete note", err)
		}

		if err := s.repomanager.Users(tx).RemoveNote(ctx, note.CreatorID, noteID); err != nil {
			return storageError("unlink note from creator", err)
		}

		return nil
	})
	if err != nil {
		return nil, storageError("delete note", err)
	}

	var releaseKey string
	if note.HasImage() {
		releaseKey = note.ImageURL
	}
	s.afterCommit(events.Deleted(noteID), releaseKey)

	return note, nil
}

// lockOwned loads and locks the note, checking that requesterID created it.
func (s *NoteService) lockOwned(ctx context.Context, tx dbx.DBTX, noteID, requesterID string) (*models.Note, error) {
	note, err := s.repomanager.Notes(tx).GetForUpdate(ctx, noteID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError("could not find note %s", noteID)
		}
		return nil, storageError("load note", err)
	}

	if note.CreatorID != requesterID {
		return nil, common.NewForbiddenError("not authorized")
	}

	return note, nil
}

func (s *NoteService) afterCommit(e events.Event, releaseKey string) {
	s.cache.Invalidate()

	s.dispatch(tasks.Task{Name: "publish " + string(e.Action), Run: func(ctx context.Context) error {
		return s.publisher.Publish(ctx, e)
	}})

	s.releaseImage(releaseKey)
}

func (s *NoteService) releaseImage(key string) {
	if key == "" {
		return
	}
	s.dispatch(tasks.Task{Name: "release image", Run: func(ctx context.Context) error {
		return s.releaser.Release(ctx, key)
	}})
}

func (s *NoteService) dispatch(t tasks.Task) {
	if err := s.dispatcher.Dispatch(t); err != nil {
		s.logger.Warn(context.Background(), "background task not dispatched", "task", t.Name, logging.Err(err))
	}
}
