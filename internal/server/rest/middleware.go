package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/logging"
	"github.com/dmitrijs2005/gophnotes/internal/server/auth"
)

// requestLogFields tags the request context with its chi request id so every
// log line written while serving it carries the id.
func requestLogFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWith(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey string

const userIDKey ctxKey = "userID"

// Authenticator rejects requests without a valid "Authorization: Bearer"
// token and stores the token's user id in the request context.
func Authenticator(secretKey []byte, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || token == "" {
				writeError(w, r, log, common.NewUnauthorizedError("not authenticated"))
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				msg := "not authenticated"
				if errors.Is(err, common.ErrTokenExpired) {
					msg = "token expired"
				}
				writeError(w, r, log, common.NewUnauthorizedError(msg))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = logging.ContextWith(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id, or "" outside Authenticator.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
