package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/events"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

func TestNoteService_Create(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.expectTx(true)

	note, creator, err := f.svc.Create(context.Background(), "u1", "Hello world", "Some content", "")
	require.NoError(t, err)

	assert.NotEmpty(t, note.ID)
	assert.Equal(t, "u1", note.CreatorID)
	assert.Equal(t, &models.UserSummary{ID: "u1", Name: "Ann"}, creator)
	assert.Contains(t, f.store.userNoteIDs("u1"), note.ID)

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, events.ActionCreate, e.Action)
	assert.Equal(t, note.ID, e.Note.ID)
	assert.Equal(t, "Ann", e.Note.Creator.Name)

	assert.Equal(t, 1, f.cache.n)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_Create_TrimsAndValidates(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")

	_, _, err := f.svc.Create(context.Background(), "u1", "  Hi  ", "tiny", "images/new.png")
	require.ErrorIs(t, err, common.ErrValidation)

	fields := map[string]bool{}
	for _, fv := range common.FieldsOf(err) {
		fields[fv.Field] = true
	}
	assert.True(t, fields["title"])
	assert.True(t, fields["content"])

	assert.Empty(t, f.publisher.events)
	assert.Zero(t, f.cache.n)
	assert.Equal(t, []string{"images/new.png"}, f.releaser.keys)
}

func TestNoteService_Create_MissingCreator(t *testing.T) {
	f := newNoteFixture(t)

	_, _, err := f.svc.Create(context.Background(), "", "Hello world", "Some content", "")
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestNoteService_Create_UnknownCreator(t *testing.T) {
	f := newNoteFixture(t)
	f.expectTx(false)

	_, _, err := f.svc.Create(context.Background(), "ghost", "Hello world", "Some content", "images/a.png")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Empty(t, f.publisher.events)
	assert.Zero(t, f.cache.n)
	assert.Equal(t, []string{"images/a.png"}, f.releaser.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_Create_PersistenceFailure(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.store.failNoteCreate = errors.New("db down")
	f.expectTx(false)

	_, _, err := f.svc.Create(context.Background(), "u1", "Hello world", "Some content", "")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Empty(t, f.store.userNoteIDs("u1"))
}

func TestNoteService_Get(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.expectTx(true)
	created, _, err := f.svc.Create(context.Background(), "u1", "Hello world", "Some content", "")
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got.Title)
	assert.Nil(t, got.History)
	assert.Equal(t, "Ann", got.Creator.Name)

	_, err = f.svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func createNote(t *testing.T, f *noteFixture, owner, image string) *models.Note {
	t.Helper()
	f.expectTx(true)
	note, _, err := f.svc.Create(context.Background(), owner, "Original title", "Original content", image)
	require.NoError(t, err)
	f.publisher.events = nil
	f.cache.n = 0
	return note
}

func TestNoteService_Update_FirstEditCreatesLogNewThenOld(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "")

	f.expectTx(true)
	updated, history, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "")
	require.NoError(t, err)

	require.NotNil(t, updated.NoteHistoryID)
	assert.Equal(t, history.ID, *updated.NoteHistoryID)
	require.Len(t, history.History, 2)
	assert.Equal(t, "Second title", history.History[0].Title)
	assert.Equal(t, "Second content", history.History[0].Content)
	assert.Equal(t, "Original title", history.History[1].Title)
	assert.Equal(t, "Original content", history.History[1].Content)

	assert.Equal(t, "Second title", updated.Title)
	assert.Same(t, history, updated.History)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.ActionUpdate, f.publisher.events[0].Action)
	assert.Equal(t, "Second title", f.publisher.events[0].Note.Title)
	assert.Equal(t, 1, f.cache.n)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_Update_LaterEditsAppendOnlyNewVersion(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "")

	f.expectTx(true)
	_, first, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "")
	require.NoError(t, err)

	f.expectTx(true)
	_, second, err := f.svc.Update(context.Background(), note.ID, "u1", "Third title", "Third content", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.History, 3)
	assert.Equal(t, first.History, second.History[:2])
	assert.Equal(t, "Third title", second.History[2].Title)

	got, err := f.svc.Get(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Third title", got.Title)
	require.NotNil(t, got.History)
	assert.Len(t, got.History.History, 3)
}

func TestNoteService_Update_NonOwnerIsForbidden(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.store.addUser("u2", "Bob")
	note := createNote(t, f, "u1", "")

	f.expectTx(false)
	_, _, err := f.svc.Update(context.Background(), note.ID, "u2", "Second title", "Second content", "")
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := f.svc.Get(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original title", got.Title)
	assert.Nil(t, got.NoteHistoryID)
	assert.Empty(t, f.store.histories)
	assert.Empty(t, f.publisher.events)
	assert.Zero(t, f.cache.n)
}

func TestNoteService_Update_NotFound(t *testing.T) {
	f := newNoteFixture(t)
	f.expectTx(false)

	_, _, err := f.svc.Update(context.Background(), "missing", "u1", "Second title", "Second content", "images/b.png")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, []string{"images/b.png"}, f.releaser.keys)
}

func TestNoteService_Update_Validation(t *testing.T) {
	f := newNoteFixture(t)

	_, _, err := f.svc.Update(context.Background(), "n1", "u1", "Second title", "abc", "")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_Update_ReplacesImageAndReleasesOld(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "images/old.png")

	f.expectTx(true)
	updated, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "images/new.png")
	require.NoError(t, err)

	assert.Equal(t, "images/new.png", updated.ImageURL)
	assert.Equal(t, []string{"images/old.png"}, f.releaser.keys)
}

func TestNoteService_Update_KeepsImageWhenNoneGiven(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "images/old.png")

	f.expectTx(true)
	updated, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "")
	require.NoError(t, err)

	assert.Equal(t, "images/old.png", updated.ImageURL)
	assert.Empty(t, f.releaser.keys)
}

func TestNoteService_Update_ImageReleaseFailureDoesNotFailUpdate(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "images/old.png")
	f.releaser.err = errors.New("s3 unavailable")

	f.expectTx(true)
	_, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "images/new.png")
	assert.NoError(t, err)
}

func TestNoteService_Update_StorageFailure(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "")
	f.store.failNoteUpdate = errors.New("db down")

	f.expectTx(false)
	_, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Empty(t, f.publisher.events)
}

func TestNoteService_Delete(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "images/pic.png")

	f.expectTx(true)
	_, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "")
	require.NoError(t, err)
	f.publisher.events = nil

	f.expectTx(true)
	deleted, err := f.svc.Delete(context.Background(), note.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, note.ID, deleted.ID)

	_, err = f.svc.Get(context.Background(), note.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.NotContains(t, f.store.userNoteIDs("u1"), note.ID)
	assert.Len(t, f.store.histories, 1, "revision log is kept after delete")

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.Deleted(note.ID), f.publisher.events[0])
	assert.Equal(t, []string{"images/pic.png"}, f.releaser.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_Delete_NonOwnerAndMissing(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.store.addUser("u2", "Bob")
	note := createNote(t, f, "u1", "")

	f.expectTx(false)
	_, err := f.svc.Delete(context.Background(), note.ID, "u2")
	assert.ErrorIs(t, err, common.ErrForbidden)

	f.expectTx(false)
	_, err = f.svc.Delete(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.Get(context.Background(), note.ID)
	assert.NoError(t, err)
	assert.Empty(t, f.publisher.events)
}

func TestNoteService_CommitFailureIsStorageError(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.mock.ExpectBegin()
	f.mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	_, _, err := f.svc.Create(context.Background(), "u1", "Hello world", "Some content", "")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Empty(t, f.publisher.events)
}

func TestNoteService_PublishFailureDoesNotFailMutations(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	f.publisher.err = errors.New("hub closed")
	ctx := context.Background()

	f.expectTx(true)
	note, _, err := f.svc.Create(ctx, "u1", "Hello world", "Some content", "")
	require.NoError(t, err)
	assert.Contains(t, f.store.userNoteIDs("u1"), note.ID)

	f.expectTx(true)
	updated, history, err := f.svc.Update(ctx, note.ID, "u1", "Hello again", "Other content", "")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	require.NotNil(t, history)
	assert.Equal(t, "Hello again", f.store.notes[note.ID].Title)
	assert.Len(t, f.store.histories[history.ID].History, 2)

	f.expectTx(true)
	_, err = f.svc.Delete(ctx, note.ID, "u1")
	require.NoError(t, err)
	assert.NotContains(t, f.store.notes, note.ID)
	assert.NotContains(t, f.store.userNoteIDs("u1"), note.ID)

	require.Len(t, f.publisher.events, 3)
	assert.Equal(t, events.ActionDelete, f.publisher.events[2].Action)
	assert.Equal(t, 3, f.cache.n)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestNoteService_ImagelessNoteReleasesNothing(t *testing.T) {
	f := newNoteFixture(t)
	f.store.addUser("u1", "Ann")
	note := createNote(t, f, "u1", "")

	f.expectTx(true)
	updated, _, err := f.svc.Update(context.Background(), note.ID, "u1", "Second title", "Second content", "images/first.png")
	require.NoError(t, err)
	assert.True(t, updated.HasImage())
	assert.Empty(t, f.releaser.keys)

	other := createNote(t, f, "u1", "")
	f.expectTx(true)
	_, err = f.svc.Delete(context.Background(), other.ID, "u1")
	require.NoError(t, err)
	assert.Empty(t, f.releaser.keys)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
