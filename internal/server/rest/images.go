package rest

import (
	"net/http"

	"github.com/go-chi/chi"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/server/images"
)

// Image handles GET /images/* by redirecting to a presigned object URL.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	const op = "rest.Image"
	log := h.log(op)

	key := images.KeyPrefix + chi.URLParam(r, "*")
	if !images.IsKey(key) || key == images.KeyPrefix {
		writeError(w, r, log, common.NewNotFoundError("image not found"))
		return
	}

	url, err := h.images.PresignGet(r.Context(), key)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}
