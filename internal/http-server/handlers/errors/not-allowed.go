package errors

import (
	"log/slog"
	"net/http"

	"refsync/lib/api/response"
)

func NotAllowed(_ *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, response.KindMethodNotAllowed, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
