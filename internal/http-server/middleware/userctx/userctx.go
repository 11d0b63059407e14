package userctx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"refsync/entity"
	"refsync/lib/api/cont"
	"refsync/lib/api/response"
	"refsync/lib/sl"
)

type Users interface {
	GetUserById(id string) (*entity.User, bool)
}

// New resolves the {id} path parameter to a user and stores it in the
// request context; unknown ids are answered with 404
func New(log *slog.Logger, users Users) func(next http.Handler) http.Handler {
	mod := sl.Module("middleware.userctx")

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(chi.URLParam(r, "id"))
			logger := log.With(
				mod,
				slog.String("user_id", id),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if id == "" {
				response.Fail(w, r, response.KindInvalidUserId, "User ID is required", http.StatusBadRequest)
				return
			}
			if users == nil {
				logger.Error("user lookup not available")
				response.Internal(w, r)
				return
			}
			user, ok := users.GetUserById(id)
			if !ok {
				logger.Debug("user not found")
				response.Fail(w, r, response.KindUserNotFound, "User not found", http.StatusNotFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(cont.PutUser(r.Context(), user)))
		}
		return http.HandlerFunc(fn)
	}
}
