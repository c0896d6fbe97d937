package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

var testSecret = []byte("test-secret")

type fakeNotes struct {
	created    []string
	lastUpdate struct{ id, requester, title, content, image string }
	deleted    []string
	note       *models.Note
	err        error
}

func (f *fakeNotes) Create(_ context.Context, creatorID, title, content, imageRef string) (*models.Note, *models.UserSummary, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.created = append(f.created, imageRef)
	n := &models.Note{ID: "n1", Title: title, Content: content, ImageURL: imageRef, CreatorID: creatorID}
	return n, &models.UserSummary{ID: creatorID, Name: "Alice"}, nil
}

func (f *fakeNotes) Get(_ context.Context, noteID string) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.note == nil || f.note.ID != noteID {
		return nil, common.NewNotFoundError("could not find note")
	}
	return f.note, nil
}

func (f *fakeNotes) Update(_ context.Context, noteID, requesterID, title, content, imageRef string) (*models.Note, *models.NoteHistory, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.lastUpdate.id, f.lastUpdate.requester = noteID, requesterID
	f.lastUpdate.title, f.lastUpdate.content, f.lastUpdate.image = title, content, imageRef
	return &models.Note{ID: noteID, Title: title, Content: content}, &models.NoteHistory{ID: "h1"}, nil
}

func (f *fakeNotes) Delete(_ context.Context, noteID, requesterID string) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, noteID+":"+requesterID)
	return &models.Note{ID: noteID}, nil
}

type fakeQuery struct {
	calls []string
	page  *models.NotePage
	err   error
}

func (f *fakeQuery) List(_ context.Context, page, perPage int) (*models.NotePage, error) {
	f.calls = append(f.calls, "list")
	return f.result(page)
}

func (f *fakeQuery) Search(_ context.Context, text string, page, perPage int) (*models.NotePage, error) {
	f.calls = append(f.calls, "search:"+text)
	return f.result(page)
}

func (f *fakeQuery) result(page int) (*models.NotePage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.page != nil {
		return f.page, nil
	}
	return &models.NotePage{Notes: []*models.Note{}, CurrentPage: page}, nil
}

type fakeAccounts struct {
	signups []services.SignupInput
	err     error
}

func (f *fakeAccounts) Signup(_ context.Context, in services.SignupInput) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.signups = append(f.signups, in)
	return &models.User{ID: "u1", Email: in.Email, Name: in.Name}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*services.LoginResult, error) {
	if email != "a@b.co" || password != "secret1" {
		return nil, common.NewUnauthorizedError("wrong email or password")
	}
	return &services.LoginResult{Token: "tok", UserID: "u1"}, nil
}

type fakeImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeImages) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	f.types[key] = contentType
	return nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeImages) PresignGet(_ context.Context, key string) (string, error) {
	return "https://s3.example.com/bucket/" + key + "?sig=1", nil
}

type testAPI struct {
	notes    *fakeNotes
	query    *fakeQuery
	accounts *fakeAccounts
	images   *fakeImages
	router   http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{
		notes:    &fakeNotes{},
		query:    &fakeQuery{},
		accounts: &fakeAccounts{},
		images:   newFakeImages(),
	}
	log := logging.New(logging.EnvProd, logging.FormatSlog, io.Discard)
	h := NewHandler(a.notes, a.query, a.accounts, a.images, log, 1<<20)
	a.router = NewRouter(h, testSecret, nil)
	return a
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, userID+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (a *testAPI) do(t *testing.T, method, target, userID string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}
