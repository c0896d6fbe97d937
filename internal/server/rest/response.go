package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message string                  `json:"message"`
	Data    []common.FieldViolation `json:"data,omitempty"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind common.Kind) int {
	switch kind {
	case common.KindValidation, common.KindConflict:
		return http.StatusUnprocessableEntity
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindForbidden:
		return http.StatusForbidden
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Internal and storage
// failures are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	kind := common.KindOf(err)
	status := statusFor(kind)

	resp := ErrorResponse{Data: common.FieldsOf(err)}
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", logging.Err(err))
		resp.Message = "internal server error"
	} else {
		log.Info(r.Context(), "request rejected", "kind", kind.String(), logging.Err(err))
		var ce *common.Error
		if errors.As(err, &ce) && ce.Message != "" {
			resp.Message = ce.Message
		} else {
			resp.Message = kind.String()
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func validationError(field, tag, message string) error {
	return common.NewValidationError("validation failed", common.FieldViolation{Field: field, Tag: tag, Message: message})
}
