package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/redis/go-redis/v9"

	"portfolio-app/internal/config"
	"portfolio-app/internal/modules/portfolio/domain"
)

// RedisRepository Redis実装のCacheStore
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository 新しいRedisRepositoryを作成
func NewRedisRepository(cfg *config.RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithContext(
			errors.Wrap(err, domain.CodeCacheFailure, "failed to connect to redis"),
			"addr", client.Options().Addr,
		)
	}

	return &RedisRepository{client: client}, nil
}

// NewRedisRepositoryWithClient 既存クライアントから作成（テスト用）
func NewRedisRepositoryWithClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Set キーと値を設定。expirationが0の場合は失効しない
func (r *RedisRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		return cacheFailure(err, "failed to set cache", key)
	}
	return nil
}

// Get キーから値を取得。存在しない場合はCacheMissを返す
func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.CacheMiss(key)
	}
	if err != nil {
		return nil, cacheFailure(err, "failed to get cache", key)
	}
	return val, nil
}

// Delete キーを削除
func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return cacheFailure(err, "failed to delete cache", key)
	}
	return nil
}

// Exists キーが存在するか確認
func (r *RedisRepository) Exists(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, cacheFailure(err, "failed to check cache existence", key)
	}
	return count > 0, nil
}

// Close Redis接続を閉じる
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func cacheFailure(err error, message, key string) error {
	return errors.WrapWithContext(err, domain.CodeCacheFailure, message, map[string]interface{}{"key": key})
}
