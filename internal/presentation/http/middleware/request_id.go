package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader リクエストIDを運ぶヘッダー
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID リクエストIDを採番してヘッダーとコンテキストに設定するミドルウェア。
// 受信したヘッダーがUUIDとして解釈できる場合はそれを引き継ぐ。
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom コンテキストからリクエストIDを取り出す
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
