package errors

import (
	"log/slog"
	"net/http"

	"refsync/lib/api/response"
)

func NotFound(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, response.KindNotFound, "Requested resource not found", http.StatusNotFound)
	}
}
