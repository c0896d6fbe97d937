package rest

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/images"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type createNoteResponse struct {
	Message string              `json:"message"`
	Note    *models.Note        `json:"note"`
	Creator *models.UserSummary `json:"creator"`
}

type noteResponse struct {
	Message string       `json:"message"`
	Note    *models.Note `json:"note"`
}

type notesResponse struct {
	Message string `json:"message"`
	*models.NotePage
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) log(op string) logging.Logger {
	return h.logger.With("op", op)
}

// CreateNote handles POST /feed/note.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	const op = "rest.CreateNote"
	log := h.log(op)

	in, imageKey, err := h.readNote(w, r)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	note, creator, err := h.notes.Create(r.Context(), UserID(r.Context()), in.Title, in.Content, imageKey)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info(r.Context(), "note created", "note_id", note.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createNoteResponse{Message: "Note created successfully!", Note: note, Creator: creator})
}

// ListNotes handles GET /feed/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	const op = "rest.ListNotes"
	log := h.log(op)

	page, perPage, err := parsePaging(r.URL.Query().Get("page"), r.URL.Query().Get("perPage"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	p, err := h.query.List(r.Context(), page, perPage)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, notesResponse{Message: "Fetched notes successfully.", NotePage: p})
}

// SearchNotes handles GET /feed/search.
func (h *Handler) SearchNotes(w http.ResponseWriter, r *http.Request) {
	const op = "rest.SearchNotes"
	log := h.log(op)

	q := r.URL.Query()
	page, perPage, err := parsePaging(q.Get("page"), q.Get("perPage"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	p, err := h.query.Search(r.Context(), q.Get("searchText"), page, perPage)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, notesResponse{Message: "Fetched notes successfully.", NotePage: p})
}

// GetNote handles GET /feed/note/{noteId}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	const op = "rest.GetNote"
	log := h.log(op)

	id, err := parseNoteID(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, noteResponse{Message: "Note fetched.", Note: note})
}

// UpdateNote handles PATCH /feed/note/{noteId}.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	const op = "rest.UpdateNote"
	log := h.log(op)

	id, err := parseNoteID(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	in, imageKey, err := h.readNote(w, r)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	note, _, err := h.notes.Update(r.Context(), id, UserID(r.Context()), in.Title, in.Content, imageKey)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info(r.Context(), "note updated", "note_id", note.ID)
	render.JSON(w, r, noteResponse{Message: "Note updated!", Note: note})
}

// DeleteNote handles DELETE /feed/note/{noteId}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	const op = "rest.DeleteNote"
	log := h.log(op)

	id, err := parseNoteID(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	if _, err := h.notes.Delete(r.Context(), id, UserID(r.Context())); err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info(r.Context(), "note deleted", "note_id", id)
	render.JSON(w, r, messageResponse{Message: "Deleted note."})
}

// readNote decodes the note fields from a JSON or multipart body. A
// multipart "image" part is uploaded first and its key returned.
func (h *Handler) readNote(w http.ResponseWriter, r *http.Request) (noteRequest, string, error) {
	var in noteRequest

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := render.DecodeJSON(r.Body, &in); err != nil {
			return in, "", validationError("body", "json", "request body must be valid JSON")
		}
		return in, "", nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+1<<20)
	if err := r.ParseMultipartForm(h.maxImageSize); err != nil {
		return in, "", validationError("image", "size", "request body too large")
	}
	in.Title = r.FormValue("title")
	in.Content = r.FormValue("content")

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, "", nil
	}
	if err != nil {
		return in, "", validationError("image", "file", "image could not be read")
	}
	defer file.Close()

	key, err := h.storeImage(r, file, header)
	return in, key, err
}

func (h *Handler) storeImage(r *http.Request, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > h.maxImageSize {
		return "", validationError("image", "size", "image is too large")
	}
	ct := header.Header.Get("Content-Type")
	ext, ok := images.Extension(ct)
	if !ok {
		return "", validationError("image", "type", "image must be png, jpg or jpeg")
	}

	key := images.NewKey(ext)
	if err := h.images.Put(r.Context(), key, file, header.Size, ct); err != nil {
		return "", err
	}
	return key, nil
}
