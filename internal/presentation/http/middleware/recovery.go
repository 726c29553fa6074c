package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/jmgilman/go/errors"
)

// Recovery パニックをJSONの500レスポンスに変換するミドルウェア
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := RequestIDFrom(r.Context())
				slog.Error("Panic recovered",
					"error", rec,
					"request_id", requestID,
					"stack", string(debug.Stack()),
				)

				err := errors.New(errors.CodeInternal, "Internal server error")
				if requestID != "" {
					err = errors.WithContext(err, "request_id", requestID)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(errors.ToJSON(err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
