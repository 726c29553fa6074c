package domain

import (
	"context"
	"time"
)

// RepositorySource リポジトリ一覧の取得元（GitHub REST API）
type RepositorySource interface {
	// ListRepositories 更新日時の新しい順に最大100件を取得
	ListRepositories(ctx context.Context, username string) ([]Repository, error)
}

// CacheStore キー・バリュー形式のキャッシュストア
type CacheStore interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ViewSurface 描画先。Loadの結果はこのいずれかのメソッドで反映される。
type ViewSurface interface {
	// ShowRepositories リポジトリカードを表示
	ShowRepositories(repos []Repository)
	// ShowEmpty 「リポジトリが見つからない」メッセージを表示
	ShowEmpty()
	// ShowFallback 取得不能時の静的パネルを表示
	ShowFallback()
	// ShowStaleWarning 古いデータを表示していることを警告
	ShowStaleWarning(hours int)
}
