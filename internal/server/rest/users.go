package rest

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/server/services"
)

type signupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /user/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	const op = "rest.Signup"
	log := h.log(op)

	var in services.SignupInput
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, log, validationError("body", "json", "request body must be valid JSON"))
		return
	}

	user, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	log.Info(r.Context(), "user created", "user_id", user.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, signupResponse{Message: "User created!", UserID: user.ID})
}

// Login handles POST /user/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "rest.Login"
	log := h.log(op)

	var in loginRequest
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		writeError(w, r, log, validationError("body", "json", "request body must be valid JSON"))
		return
	}

	res, err := h.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, r, log, err)
		return
	}

	render.JSON(w, r, res)
}
