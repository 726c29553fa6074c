package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthPath ヘルスチェックのパス
const HealthPath = "/health"

// responseWriter ステータスコードをキャプチャするためのラッパー
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggerWithHealthCheck ロギングミドルウェア。ヘルスチェックは異常時のみ記録する
func LoggerWithHealthCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrap(w)

		next.ServeHTTP(rw, r)

		// ヘルスチェックは異常時のみログ出力
		if r.URL.Path == HealthPath {
			if rw.statusCode != http.StatusOK {
				slog.Error("Health check failed",
					"status", rw.statusCode,
					"request_id", RequestIDFrom(r.Context()),
				)
			}
			return
		}

		logRequest(r, rw, time.Since(start))
	})
}

func wrap(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func logRequest(r *http.Request, rw *responseWriter, duration time.Duration) {
	slog.Info("HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rw.statusCode,
		"bytes", rw.written,
		"duration", duration,
		"request_id", RequestIDFrom(r.Context()),
		"cache", rw.Header().Get("X-Cache"),
	)
}
