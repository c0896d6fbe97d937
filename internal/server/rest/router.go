package rest

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// NewRouter wires the handler's endpoints. ws, when non-nil, is mounted at
// /ws for event subscriptions.
func NewRouter(h *Handler, secretKey []byte, ws http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogFields)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/user", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Route("/feed", func(r chi.Router) {
		r.Use(Authenticator(secretKey, h.logger))
		r.Get("/notes", h.ListNotes)
		r.Get("/search", h.SearchNotes)
		r.Post("/note", h.CreateNote)
		r.Get("/note/{noteId}", h.GetNote)
		r.Patch("/note/{noteId}", h.UpdateNote)
		r.Delete("/note/{noteId}", h.DeleteNote)
	})

	r.Get("/images/*", h.Image)

	if ws != nil {
		r.Handle("/ws", ws)
	}

	return r
}
