package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"refsync/internal/abuse"
	"refsync/lib/api/response"
)

type Core interface {
	AbuseConfig() abuse.Config
}

func Abuse(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler == nil {
			response.Internal(w, r)
			return
		}
		render.JSON(w, r, handler.AbuseConfig())
	}
}

func Health(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
