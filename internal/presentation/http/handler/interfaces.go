package handler

import (
	"context"
)

// CacheCheckerInterface はヘルスチェックで疎通を確認するキャッシュのインターフェース
type CacheCheckerInterface interface {
	Exists(ctx context.Context, key string) (bool, error)
}
