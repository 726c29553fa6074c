package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	version  string
	cache    CacheCheckerInterface
	cacheKey string
}

// NewHealthHandler 新しいHealthHandlerを作成。cacheがnilの場合はキャッシュを確認しない
func NewHealthHandler(version string, cache CacheCheckerInterface, cacheKey string) *HealthHandler {
	return &HealthHandler{
		version:  version,
		cache:    cache,
		cacheKey: cacheKey,
	}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Cache   string `json:"cache,omitempty"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "ok",
		Version: h.version,
	}
	statusCode := http.StatusOK

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		// キャッシュ障害は degraded として報告
		if _, err := h.cache.Exists(ctx, h.cacheKey); err != nil {
			slog.Warn("cache health check failed", slog.String("error", err.Error()))
			response.Status = "degraded"
			response.Cache = "unavailable"
			statusCode = http.StatusServiceUnavailable
		} else {
			response.Cache = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
