package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	_ "github.com/go-sql-driver/mysql"

	"portfolio-app/internal/config"
	"portfolio-app/internal/modules/portfolio/domain"
)

// CacheEntry BUNモデル
type CacheEntry struct {
	bun.BaseModel `bun:"table:cache_entries"`

	Key       string     `bun:"cache_key,pk,type:varchar(191)"`
	Value     []byte     `bun:"value,notnull,type:mediumblob"`
	ExpiresAt *time.Time `bun:"expires_at,type:datetime(3)"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,type:datetime(3)"`
}

// BunCacheRepository MySQL(BUN)実装のCacheStore
type BunCacheRepository struct {
	db  *bun.DB
	now func() time.Time
}

// NewBunCacheRepository 新しいBunCacheRepositoryを作成し、テーブルを用意する
func NewBunCacheRepository(cfg *config.MySQLConfig) (*BunCacheRepository, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, domain.CodeCacheFailure, "failed to open database")
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WithContext(
			errors.Wrap(err, domain.CodeCacheFailure, "failed to ping database"),
			"host", cfg.Host,
		)
	}

	repo := NewBunCacheRepositoryWithDB(db)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewBunCacheRepositoryWithDB DBインスタンスから作成（テスト用）
func NewBunCacheRepositoryWithDB(db *bun.DB) *BunCacheRepository {
	return &BunCacheRepository{db: db, now: time.Now}
}

// Migrate cache_entriesテーブルを作成
func (r *BunCacheRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.NewCreateTable().Model((*CacheEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return errors.Wrap(err, domain.CodeCacheFailure, "failed to create cache_entries table")
	}
	return nil
}

// Set キーと値を上書き保存。expirationが0の場合は失効しない
func (r *BunCacheRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	now := r.now().UTC()
	entry := &CacheEntry{
		Key:       key,
		Value:     value,
		UpdatedAt: now,
	}
	if expiration > 0 {
		expiresAt := now.Add(expiration)
		entry.ExpiresAt = &expiresAt
	}

	_, err := r.db.NewInsert().
		Model(entry).
		On("DUPLICATE KEY UPDATE").
		Set("value = VALUES(value)").
		Set("expires_at = VALUES(expires_at)").
		Set("updated_at = VALUES(updated_at)").
		Exec(ctx)
	if err != nil {
		return cacheFailure(err, "failed to set cache", key)
	}
	return nil
}

// Get キーから値を取得。存在しないか失効済みの場合はCacheMissを返す
func (r *BunCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	entry := &CacheEntry{}
	err := r.live(r.db.NewSelect().Model(entry), key).Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.CacheMiss(key)
	}
	if err != nil {
		return nil, cacheFailure(err, "failed to get cache", key)
	}
	return entry.Value, nil
}

// Delete キーを削除
func (r *BunCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.NewDelete().
		Model((*CacheEntry)(nil)).
		Where("cache_key = ?", key).
		Exec(ctx)

	if err != nil {
		return cacheFailure(err, "failed to delete cache", key)
	}
	return nil
}

// Exists キーが存在するか確認
func (r *BunCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := r.live(r.db.NewSelect().Model((*CacheEntry)(nil)), key).Exists(ctx)
	if err != nil {
		return false, cacheFailure(err, "failed to check cache existence", key)
	}
	return exists, nil
}

// Close データベース接続を閉じる
func (r *BunCacheRepository) Close() error {
	return r.db.Close()
}

// live 失効していないエントリに絞り込む
func (r *BunCacheRepository) live(q *bun.SelectQuery, key string) *bun.SelectQuery {
	return q.
		Where("cache_key = ?", key).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("expires_at IS NULL").WhereOr("expires_at > ?", r.now().UTC())
		})
}

func cacheFailure(err error, message, key string) error {
	return errors.WrapWithContext(err, domain.CodeCacheFailure, message, map[string]interface{}{"key": key})
}
