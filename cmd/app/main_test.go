package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// MockServer テスト用のモックサーバー
type MockServer struct {
	listenAndServeFunc func() error
	shutdownFunc       func(ctx context.Context) error
}

func (m *MockServer) ListenAndServe() error {
	if m.listenAndServeFunc != nil {
		return m.listenAndServeFunc()
	}
	return nil
}

func (m *MockServer) Shutdown(ctx context.Context) error {
	if m.shutdownFunc != nil {
		return m.shutdownFunc(ctx)
	}
	return nil
}

// newTestApp 存在しない設定ファイル（デフォルト設定）でAppを作成
func newTestApp(t *testing.T, port string) *App {
	t.Helper()
	// デフォルトのキャッシュファイルを一時ディレクトリに置く
	t.Setenv("HOME", t.TempDir())

	app, err := NewApp(&AppConfig{
		ConfigPath: filepath.Join(t.TempDir(), "nonexistent.yaml"),
		Port:       port,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	t.Cleanup(func() { _ = app.container.Close() })
	return app
}

// TestNewApp_Fast NewAppの高速テスト（サーバー起動なし）
func TestNewApp_Fast(t *testing.T) {
	tests := []struct {
		name     string
		port     string
		wantPort string
	}{
		{
			name:     "正常系: デフォルト設定",
			port:     "8080",
			wantPort: ":8080",
		},
		{
			name:     "正常系: カスタムポート",
			port:     "9090",
			wantPort: ":9090",
		},
		{
			name:     "正常系: 空ポート（設定ファイルの値）",
			port:     "",
			wantPort: ":8080",
		},
		{
			name:     "境界値: 最小ポート",
			port:     "1",
			wantPort: ":1",
		},
		{
			name:     "境界値: 最大ポート",
			port:     "65535",
			wantPort: ":65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.port)

			if app.config == nil {
				t.Error("app.config is nil")
			}
			if app.container == nil {
				t.Error("app.container is nil")
			}
			if app.server == nil {
				t.Fatal("app.server is nil")
			}

			if app.server.Addr != tt.wantPort {
				t.Errorf("server.Addr = %v, want %v", app.server.Addr, tt.wantPort)
			}

			// タイムアウト設定の検証
			if app.server.ReadTimeout != 30*time.Second {
				t.Errorf("ReadTimeout = %v, want 30s", app.server.ReadTimeout)
			}
			if app.server.WriteTimeout != 30*time.Second {
				t.Errorf("WriteTimeout = %v, want 30s", app.server.WriteTimeout)
			}
			if app.server.IdleTimeout != 60*time.Second {
				t.Errorf("IdleTimeout = %v, want 60s", app.server.IdleTimeout)
			}

			if app.server.Handler == nil {
				t.Error("server.Handler is nil")
			}
		})
	}
}

// TestApp_Components コンポーネントの検証
func TestApp_Components(t *testing.T) {
	app := newTestApp(t, "8080")

	t.Run("Container存在確認", func(t *testing.T) {
		if app.container.Config() == nil {
			t.Error("container.Config() is nil")
		}
		if app.container.ShowcaseUseCase() == nil {
			t.Error("container.ShowcaseUseCase() is nil")
		}
		if app.container.PortfolioHandler() == nil {
			t.Error("container.PortfolioHandler() is nil")
		}
	})

	t.Run("キャッシュキー確認", func(t *testing.T) {
		uc := app.container.ShowcaseUseCase()
		want := "github_repos_" + uc.Username()
		if uc.CacheKey() != want {
			t.Errorf("CacheKey() = %v, want %v", uc.CacheKey(), want)
		}
	})
}

// TestApp_WithConfigFile 設定ファイルを使用したテスト
func TestApp_WithConfigFile(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		port          string
		wantAddr      string
		wantUsername  string
		wantErr       bool
	}{
		{
			name: "正常系: 有効な設定ファイル",
			configContent: `server:
  port: "9100"
github:
  username: octocat
cache:
  backend: memory
`,
			port:         "",
			wantAddr:     ":9100",
			wantUsername: "octocat",
		},
		{
			name: "正常系: フラグが設定ファイルより優先",
			configContent: `server:
  port: "9100"
`,
			port:     "9000",
			wantAddr: ":9000",
		},
		{
			name:          "異常系: 無効なYAML（デフォルトにフォールバック）",
			configContent: `invalid: yaml: [[[`,
			port:          "8080",
			wantAddr:      ":8080",
		},
		{
			name:          "正常系: 空の設定ファイル",
			configContent: "",
			port:          "",
			wantAddr:      ":8080",
		},
		{
			name: "異常系: 未知のキャッシュバックエンド",
			configContent: `cache:
  backend: memcached
`,
			port:    "8080",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configContent), 0644); err != nil {
				t.Fatalf("Failed to create test config: %v", err)
			}

			app, err := NewApp(&AppConfig{
				ConfigPath: configPath,
				Port:       tt.port,
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewApp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer func() { _ = app.container.Close() }()

			if app.server.Addr != tt.wantAddr {
				t.Errorf("server.Addr = %v, want %v", app.server.Addr, tt.wantAddr)
			}
			if tt.wantUsername != "" {
				if got := app.container.ShowcaseUseCase().Username(); got != tt.wantUsername {
					t.Errorf("Username() = %v, want %v", got, tt.wantUsername)
				}
			}
		})
	}
}

// TestApp_Shutdown Shutdownの動作確認（サーバー起動なし）
func TestApp_Shutdown(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{
			name:    "正常系: 通常のタイムアウト",
			timeout: 5 * time.Second,
		},
		{
			name:    "境界値: 1ナノ秒タイムアウト",
			timeout: 1 * time.Nanosecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, "8080")

			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()

			// 起動前のShutdownでもpanicしない
			_ = app.Shutdown(ctx)
		})
	}
}

// TestApp_Shutdown_Idempotency Shutdownの冪等性テスト
func TestApp_Shutdown_Idempotency(t *testing.T) {
	app := newTestApp(t, "8080")

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		if err := app.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() #%d error = %v", i+1, err)
		}
		cancel()
	}
}

// TestApp_Shutdown_ServerError サーバーのシャットダウン失敗
func TestApp_Shutdown_ServerError(t *testing.T) {
	app := newTestApp(t, "8080")
	app.serverSeam = &MockServer{
		shutdownFunc: func(ctx context.Context) error {
			return context.DeadlineExceeded
		},
	}

	err := app.Shutdown(context.Background())
	if err == nil {
		t.Fatal("Shutdown() expected error")
	}
	if !strings.Contains(err.Error(), "server shutdown failed") {
		t.Errorf("error = %v, want server shutdown failed", err)
	}
}

// TestApp_NilConfig nilの設定でのパニックテスト
func TestApp_NilConfig(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for nil config, but didn't panic")
		}
	}()

	_, _ = NewApp(nil)
}

// TestApp_MultipleInstances 複数インスタンスの独立性
func TestApp_MultipleInstances(t *testing.T) {
	app1 := newTestApp(t, "8080")
	app2 := newTestApp(t, "9090")

	if app1.server.Addr == app2.server.Addr {
		t.Error("Expected different server addresses")
	}
	if app1.container == app2.container {
		t.Error("Expected different container instances")
	}
}

// TestApp_Start_WithMock モックを使用したStartのテスト
func TestApp_Start_WithMock(t *testing.T) {
	tests := []struct {
		name    string
		mockErr error
		wantErr bool
	}{
		{
			name:    "正常系: 起動成功",
			mockErr: nil,
			wantErr: false,
		},
		{
			name:    "異常系: 起動失敗",
			mockErr: context.DeadlineExceeded,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, "8080")
			app.out = &bytes.Buffer{}

			app.serverSeam = &MockServer{
				listenAndServeFunc: func() error {
					return tt.mockErr
				},
			}

			err := app.Start()
			if (err != nil) != tt.wantErr {
				t.Errorf("Start() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestApp_Run_WithMock モックを使用したRunのテスト
func TestApp_Run_WithMock(t *testing.T) {
	t.Run("正常系: シグナル受信でシャットダウン", func(t *testing.T) {
		app := newTestApp(t, "8080")
		app.out = &bytes.Buffer{}

		started := make(chan struct{})
		shutdownCalled := make(chan struct{}, 1)

		app.serverSeam = &MockServer{
			listenAndServeFunc: func() error {
				close(started)
				return nil
			},
			shutdownFunc: func(ctx context.Context) error {
				shutdownCalled <- struct{}{}
				return nil
			},
		}

		done := make(chan error, 1)
		go func() {
			done <- app.Run()
		}()

		<-started
		// signal.Notifyの登録を待つ
		time.Sleep(100 * time.Millisecond)
		proc, _ := os.FindProcess(os.Getpid())
		_ = proc.Signal(os.Interrupt)

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Run() did not return within timeout")
		}

		select {
		case <-shutdownCalled:
		default:
			t.Error("Shutdown was not called")
		}
	})

	t.Run("異常系: サーバー起動失敗", func(t *testing.T) {
		app := newTestApp(t, "8080")
		app.out = &bytes.Buffer{}
		app.serverSeam = &MockServer{
			listenAndServeFunc: func() error {
				return context.Canceled
			},
		}

		err := app.Run()
		if err == nil || !strings.Contains(err.Error(), "server failed") {
			t.Errorf("Run() error = %v, want server failed", err)
		}
	})
}

// TestApp_PrintStartupMessage 起動メッセージのテスト
func TestApp_PrintStartupMessage(t *testing.T) {
	app := newTestApp(t, "8080")
	var buf bytes.Buffer
	app.out = &buf

	app.printStartupMessage()

	out := buf.String()
	for _, want := range []string{
		"Portfolio Server",
		"Cache backend: file",
		"http://0.0.0.0:8080",
		"/api/v1/repos",
		"/api/v1/repos.json",
		"/health",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("startup message missing %q:\n%s", want, out)
		}
	}
}
