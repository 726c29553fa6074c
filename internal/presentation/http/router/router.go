package router

import (
	"io/fs"
	"net/http"

	"portfolio-app/internal/presentation/di"
	"portfolio-app/internal/presentation/http/middleware"
	"portfolio-app/web"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// ポートフォリオ ハンドラー
	portfolioHandler := container.PortfolioHandler()
	mux.HandleFunc("/{$}", portfolioHandler.HandlePage)
	mux.HandleFunc("/api/v1/repos", portfolioHandler.HandleFragment)
	mux.HandleFunc("/api/v1/repos.json", portfolioHandler.HandleJSON)

	// Static files
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	// Health check
	mux.Handle(middleware.HealthPath, container.HealthHandler())

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.LoggerWithHealthCheck(h)
	h = middleware.CORS(h)
	h = middleware.RequestID(h)

	return h
}
