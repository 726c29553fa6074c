package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-app/internal/config"
	"portfolio-app/internal/presentation/di"
	"portfolio-app/internal/presentation/http/router"
)

// AppConfig アプリケーション設定
type AppConfig struct {
	ConfigPath string
	Port       string
}

// ServerInterface サーバーインターフェース（Seam化）
type ServerInterface interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App アプリケーション構造体（Seamパターン）
type App struct {
	config     *AppConfig
	container  *di.Container
	server     *http.Server
	serverSeam ServerInterface // テスト用のSeam
	out        io.Writer
}

// loadConfig 設定を読み込む。読み込みに失敗した場合はデフォルト設定を使う
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "path", path, "error", err)
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp 新しいAppを作成
func NewApp(appCfg *AppConfig) (*App, error) {
	cfg := loadConfig(appCfg.ConfigPath)

	// ポートのデフォルト値設定（フラグ > 設定ファイル > 8080）
	if appCfg.Port == "" {
		appCfg.Port = cfg.Server.Port
	}
	if appCfg.Port == "" {
		appCfg.Port = "8080"
	}

	// DIコンテナの初期化
	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DI container: %w", err)
	}

	// ルーターの作成
	handler := router.NewRouter(container)

	// サーバーの設定
	server := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	app := &App{
		config:    appCfg,
		container: container,
		server:    server,
		out:       os.Stdout,
	}
	// デフォルトでは実際のサーバーを使用
	app.serverSeam = server

	return app, nil
}

// Start サーバーを起動
func (a *App) Start() error {
	a.printStartupMessage()

	return a.serverSeam.ListenAndServe()
}

// printStartupMessage 起動メッセージを出力
func (a *App) printStartupMessage() {
	cfg := a.container.Config()

	fmt.Fprintln(a.out, "=== Portfolio Server ===")
	fmt.Fprintf(a.out, "GitHub user: %s\n", cfg.GitHub.Username)
	fmt.Fprintf(a.out, "Cache backend: %s (key: %s, fresh for %s)\n",
		cfg.Cache.Backend, a.container.ShowcaseUseCase().CacheKey(), cfg.Cache.FreshnessWindow)
	if cfg.Cache.Backend == config.CacheBackendFile {
		fmt.Fprintf(a.out, "Cache file: %s\n", cfg.Cache.File)
	}
	fmt.Fprintf(a.out, "Server listening on http://0.0.0.0:%s\n", a.config.Port)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Endpoints:")
	fmt.Fprintln(a.out, "  GET  /                    - Portfolio page")
	fmt.Fprintln(a.out, "  GET  /api/v1/repos        - Repository cards (HTML fragment)")
	fmt.Fprintln(a.out, "  GET  /api/v1/repos.json   - Repository list (JSON)")
	fmt.Fprintln(a.out, "  GET  /health              - Health check")
	fmt.Fprintln(a.out)
}

// Shutdown サーバーをシャットダウン
func (a *App) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down server...")

	// サーバーのシャットダウン（Seamを使用）
	if err := a.serverSeam.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// コンテナのクローズ
	if err := a.container.Close(); err != nil {
		return fmt.Errorf("container close failed: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

// Run アプリケーションを実行（グレースフルシャットダウン付き）
func (a *App) Run() error {
	// サーバー起動（goroutine）
	serverErr := make(chan error, 1)
	go func() {
		if err := a.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// シグナルの待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		_ = a.container.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
		// グレースフルシャットダウン
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return a.Shutdown(ctx)
	}
}

// realMain 実際のmain処理（テスト可能にするため分離）
func realMain(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := realMain(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
