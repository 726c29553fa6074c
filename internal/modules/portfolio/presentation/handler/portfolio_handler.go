package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmgilman/go/errors"

	"portfolio-app/internal/modules/portfolio/domain"
	"portfolio-app/internal/modules/portfolio/presentation/view"
	"portfolio-app/internal/modules/portfolio/usecase"
)

// CacheHeader 解決結果を示すレスポンスヘッダー
const CacheHeader = "X-Cache"

// ShowcaseUseCaseInterface はショーケースユースケースのインターフェース
type ShowcaseUseCaseInterface interface {
	Load(ctx context.Context, surface domain.ViewSurface) usecase.Resolution
	Resolve(ctx context.Context) usecase.Resolution
}

// PageOptions ページの固定表示項目
type PageOptions struct {
	Lang     string
	Title    string
	Heading  string
	Username string
	Now      func() time.Time
}

// PortfolioHandler ポートフォリオページとリポジトリ一覧のハンドラー
type PortfolioHandler struct {
	showcase ShowcaseUseCaseInterface
	renderer *view.Renderer
	page     PageOptions
}

// NewPortfolioHandler 新しいPortfolioHandlerを作成
func NewPortfolioHandler(showcase ShowcaseUseCaseInterface, renderer *view.Renderer, page PageOptions) *PortfolioHandler {
	if page.Now == nil {
		page.Now = time.Now
	}
	return &PortfolioHandler{
		showcase: showcase,
		renderer: renderer,
		page:     page,
	}
}

// ReposResponse JSON APIのレスポンス
type ReposResponse struct {
	Outcome    string                `json:"outcome"`
	StaleHours *int                  `json:"stale_hours,omitempty"`
	FetchedAt  *time.Time            `json:"fetched_at,omitempty"`
	Repos      []domain.Repository   `json:"repos"`
	Error      *errors.ErrorResponse `json:"error,omitempty"`
}

// allowRead GETとHEAD以外は405を返す
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// HandlePage ポートフォリオページ全体を表示
func (h *PortfolioHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}

	surface := view.NewHTMLSurface(h.renderer)
	res := h.showcase.Load(r.Context(), surface)
	if err := surface.Err(); err != nil {
		renderFailed(w, r, err)
		return
	}

	data := view.PageData{
		Lang:       h.page.Lang,
		Title:      h.page.Title,
		Heading:    h.page.Heading,
		Username:   h.page.Username,
		ProfileURL: h.renderer.ProfileURL(),
		Year:       h.page.Now().Year(),
		Outcome:    string(res.Outcome),
		Warning:    surface.Warning,
		Content:    surface.Content,
	}

	// 途中までの出力を避けるためバッファに描画してから書き出す
	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, data); err != nil {
		renderFailed(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(CacheHeader, CacheStatus(res.Outcome))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleFragment マウントポイントの中身（警告を含む）だけを返す
func (h *PortfolioHandler) HandleFragment(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}

	surface := view.NewHTMLSurface(h.renderer)
	res := h.showcase.Load(r.Context(), surface)
	if err := surface.Err(); err != nil {
		renderFailed(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(CacheHeader, CacheStatus(res.Outcome))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(surface.Fragment()))
}

// HandleJSON 解決結果をJSONで返す
func (h *PortfolioHandler) HandleJSON(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}

	res := h.showcase.Resolve(r.Context())

	response := ReposResponse{
		Outcome: string(res.Outcome),
		Repos:   []domain.Repository{},
		Error:   errors.ToJSON(res.Err),
	}
	switch res.Outcome {
	case usecase.OutcomeFresh, usecase.OutcomeFetched, usecase.OutcomeStale:
		response.Repos = res.Repositories
		fetchedAt := res.FetchedAt.UTC()
		response.FetchedAt = &fetchedAt
	}
	if res.Outcome == usecase.OutcomeStale {
		hours := res.StaleHours
		response.StaleHours = &hours
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(CacheHeader, CacheStatus(res.Outcome))
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// CacheStatus 解決結果をX-Cacheヘッダーの値に変換
func CacheStatus(outcome usecase.Outcome) string {
	switch outcome {
	case usecase.OutcomeFresh:
		return "HIT"
	case usecase.OutcomeFetched:
		return "MISS"
	case usecase.OutcomeStale:
		return "STALE"
	case usecase.OutcomeEmpty:
		return "EMPTY"
	default:
		return "FALLBACK"
	}
}

func renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("failed to render portfolio",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Failed to render page", http.StatusInternalServerError)
}
