package cache

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	gocache "github.com/patrickmn/go-cache"

	"portfolio-app/internal/modules/portfolio/domain"
)

// MemoryRepository go-cacheによるCacheStore。
// pathが設定されている場合は書き込みのたびにgobファイルへ保存し、
// 他のプロセスがファイルを更新していれば読み込み直す。
type MemoryRepository struct {
	mu    sync.Mutex
	store *gocache.Cache
	path  string

	// 最後に読み書きしたファイルの状態
	modTime time.Time
	size    int64
}

// NewMemoryRepository プロセス内だけで保持するMemoryRepositoryを作成
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: newStore()}
}

// NewFileRepository pathのファイルに永続化するMemoryRepositoryを作成。
// ファイルが無い場合は空の状態から始め、読めない場合は警告を出して空の状態から始める
func NewFileRepository(path string) (*MemoryRepository, error) {
	if path == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "cache file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WrapWithContext(err, domain.CodeCacheFailure, "failed to create cache directory",
			map[string]interface{}{"path": path})
	}

	r := &MemoryRepository{store: newStore(), path: path}
	r.mu.Lock()
	r.reloadLocked()
	r.mu.Unlock()
	return r, nil
}

func newStore() *gocache.Cache {
	return gocache.New(gocache.NoExpiration, 0)
}

// Path 永続化先のファイルパス（プロセス内のみの場合は空）
func (r *MemoryRepository) Path() string {
	return r.path
}

// Set キーと値を設定。expirationが0の場合は失効しない
func (r *MemoryRepository) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return cacheFailure(err, "failed to set cache", key)
	}
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()
	// 呼び出し側のスライスを書き換えられても影響しないようコピーを保持
	r.store.Set(key, append([]byte(nil), value...), expiration)
	if err := r.persistLocked(); err != nil {
		return cacheFailure(err, "failed to save cache file", key)
	}
	return nil
}

// Get キーから値を取得。存在しない場合はCacheMissを返す
func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, cacheFailure(err, "failed to get cache", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()
	v, ok := r.store.Get(key)
	if !ok {
		return nil, domain.CacheMiss(key)
	}
	return append([]byte(nil), v.([]byte)...), nil
}

// Delete キーを削除
func (r *MemoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()
	r.store.Delete(key)
	if err := r.persistLocked(); err != nil {
		return cacheFailure(err, "failed to save cache file", key)
	}
	return nil
}

// Exists キーが存在するか確認
func (r *MemoryRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reloadLocked()
	_, ok := r.store.Get(key)
	return ok, nil
}

// Close ファイルに永続化している場合は最後の状態を保存する
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.persistLocked(); err != nil {
		return errors.WrapWithContext(err, domain.CodeCacheFailure, "failed to save cache file",
			map[string]interface{}{"path": r.path})
	}
	return nil
}

// reloadLocked ファイルが前回の読み書きから変わっていれば読み込み直す
func (r *MemoryRepository) reloadLocked() {
	if r.path == "" {
		return
	}

	info, err := os.Stat(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to stat cache file", "path", r.path, "error", err)
		}
		return
	}
	if info.ModTime().Equal(r.modTime) && info.Size() == r.size {
		return
	}
	r.modTime = info.ModTime()
	r.size = info.Size()

	f, err := os.Open(r.path)
	if err != nil {
		slog.Warn("Failed to open cache file", "path", r.path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	store := newStore()
	if err := store.Load(f); err != nil {
		// 壊れたファイルは空のキャッシュとして扱う
		slog.Warn("Ignoring unreadable cache file", "path", r.path, "error", err)
		r.store = newStore()
		return
	}
	r.store = store
}

// persistLocked 一時ファイルに書き出してから置き換える
func (r *MemoryRepository) persistLocked() error {
	if r.path == "" {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return err
	}
	if err := r.store.Save(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if info, err := os.Stat(r.path); err == nil {
		r.modTime = info.ModTime()
		r.size = info.Size()
	}
	return nil
}
