package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmgilman/go/errors"
	"golang.org/x/sync/singleflight"

	"portfolio-app/internal/modules/portfolio/domain"
)

// Outcome Loadの結果の種別
type Outcome string

const (
	// OutcomeFresh 新鮮なキャッシュを表示（ネットワーク呼び出しなし）
	OutcomeFresh Outcome = "fresh"
	// OutcomeFetched 取得した一覧を表示し、キャッシュを更新
	OutcomeFetched Outcome = "fetched"
	// OutcomeStale 取得に失敗し、古いキャッシュを警告付きで表示
	OutcomeStale Outcome = "stale"
	// OutcomeEmpty 取得は成功したが表示対象が無い
	OutcomeEmpty Outcome = "empty"
	// OutcomeFallback 取得に失敗し、キャッシュも無い
	OutcomeFallback Outcome = "fallback"
)

// Resolution Loadの解決結果
type Resolution struct {
	Outcome      Outcome
	Repositories []domain.Repository
	FetchedAt    time.Time
	StaleHours   int
	Err          error // stale/fallbackの原因
}

// ShowcaseOptions ShowcaseUseCaseの設定
type ShowcaseOptions struct {
	Username        string
	CacheKey        string
	FreshnessWindow time.Duration
	Now             func() time.Time
}

// ShowcaseUseCase リポジトリ一覧の取得・キャッシュ・描画を制御するユースケース
type ShowcaseUseCase struct {
	source   domain.RepositorySource
	cache    domain.CacheStore
	username string
	cacheKey string
	window   time.Duration
	now      func() time.Time
	group    singleflight.Group
}

// NewShowcaseUseCase 新しいShowcaseUseCaseを作成
func NewShowcaseUseCase(source domain.RepositorySource, cache domain.CacheStore, opts ShowcaseOptions) *ShowcaseUseCase {
	if opts.CacheKey == "" {
		opts.CacheKey = domain.CacheKey(opts.Username)
	}
	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = domain.FreshnessWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &ShowcaseUseCase{
		source:   source,
		cache:    cache,
		username: opts.Username,
		cacheKey: opts.CacheKey,
		window:   opts.FreshnessWindow,
		now:      opts.Now,
	}
}

// Username 対象ユーザー名
func (uc *ShowcaseUseCase) Username() string {
	return uc.username
}

// CacheKey キャッシュキー
func (uc *ShowcaseUseCase) CacheKey() string {
	return uc.cacheKey
}

// Load 一覧を解決してsurfaceに反映する。エラーは全て内部で処理される。
func (uc *ShowcaseUseCase) Load(ctx context.Context, surface domain.ViewSurface) Resolution {
	res := uc.Resolve(ctx)
	Apply(res, surface)
	return res
}

// Resolve 一覧を解決する。同時に呼ばれた場合は一つの解決結果を共有する。
func (uc *ShowcaseUseCase) Resolve(ctx context.Context) Resolution {
	// 共有される処理は最初の呼び出し元のキャンセルに巻き込まない
	shared := context.WithoutCancel(ctx)

	v, _, _ := uc.group.Do(uc.cacheKey, func() (interface{}, error) {
		return uc.resolve(shared), nil
	})
	return v.(Resolution)
}

func (uc *ShowcaseUseCase) resolve(ctx context.Context) Resolution {
	record := uc.readCache(ctx)
	if record != nil && record.IsFresh(uc.now(), uc.window) {
		slog.Debug("Using cached repositories",
			"key", uc.cacheKey,
			"age", record.Age(uc.now()).Round(time.Second),
		)
		return Resolution{
			Outcome:      OutcomeFresh,
			Repositories: record.Repositories,
			FetchedAt:    record.FetchedAt(),
		}
	}

	repos, err := uc.source.ListRepositories(ctx, uc.username)
	if err != nil {
		return uc.degrade(record, err)
	}

	filtered := domain.FilterAndSort(repos)
	if len(filtered) == 0 {
		slog.Info("No repositories to display", "user", uc.username, "fetched", len(repos))
		return Resolution{Outcome: OutcomeEmpty, Repositories: filtered}
	}

	fetchedAt := uc.now()
	uc.writeCache(ctx, domain.NewCacheRecord(filtered, fetchedAt))

	return Resolution{
		Outcome:      OutcomeFetched,
		Repositories: filtered,
		FetchedAt:    fetchedAt,
	}
}

// degrade 取得失敗時に古いキャッシュかフォールバックへ切り替える
func (uc *ShowcaseUseCase) degrade(record *domain.CacheRecord, cause error) Resolution {
	slog.Warn("Failed to fetch repositories",
		"user", uc.username,
		"code", errors.GetCode(cause),
		"error", cause,
	)

	if record == nil {
		return Resolution{Outcome: OutcomeFallback, Err: cause}
	}

	return Resolution{
		Outcome:      OutcomeStale,
		Repositories: record.Repositories,
		FetchedAt:    record.FetchedAt(),
		StaleHours:   domain.StaleHours(record.Age(uc.now())),
		Err:          cause,
	}
}

// readCache キャッシュを読む。無い・壊れている・読めない場合はnil。
func (uc *ShowcaseUseCase) readCache(ctx context.Context) *domain.CacheRecord {
	if uc.cache == nil {
		return nil
	}

	data, err := uc.cache.Get(ctx, uc.cacheKey)
	if err != nil {
		if !domain.IsCacheMiss(err) {
			slog.Warn("Failed to read cache", "key", uc.cacheKey, "error", err)
		}
		return nil
	}

	record, err := domain.DecodeCacheRecord(data)
	if err != nil {
		slog.Warn("Ignoring corrupt cache record", "key", uc.cacheKey, "error", err)
		return nil
	}

	return record
}

// writeCache キャッシュを丸ごと上書きする。失敗しても結果には影響しない。
func (uc *ShowcaseUseCase) writeCache(ctx context.Context, record *domain.CacheRecord) {
	if uc.cache == nil {
		return
	}

	data, err := record.Encode()
	if err != nil {
		slog.Error("Failed to encode cache record", "key", uc.cacheKey, "error", err)
		return
	}

	// 物理的な有効期限は設けない（鮮度はタイムスタンプで判定）
	if err := uc.cache.Set(ctx, uc.cacheKey, data, 0); err != nil {
		slog.Error("Failed to write cache", "key", uc.cacheKey, "error", err)
	}
}

// CachedRecord 現在のキャッシュ内容を返す
func (uc *ShowcaseUseCase) CachedRecord(ctx context.Context) (*domain.CacheRecord, error) {
	if uc.cache == nil {
		return nil, domain.CacheMiss(uc.cacheKey)
	}

	data, err := uc.cache.Get(ctx, uc.cacheKey)
	if err != nil {
		return nil, err
	}

	return domain.DecodeCacheRecord(data)
}

// CacheStatus キャッシュの状態（運用コマンド用）
type CacheStatus struct {
	Key       string
	Present   bool
	FetchedAt time.Time
	Age       time.Duration
	Fresh     bool
	Count     int
}

// Status 現在のキャッシュの鮮度を返す。キャッシュが無い場合はPresent=false
func (uc *ShowcaseUseCase) Status(ctx context.Context) (CacheStatus, error) {
	status := CacheStatus{Key: uc.cacheKey}

	record, err := uc.CachedRecord(ctx)
	if domain.IsCacheMiss(err) {
		return status, nil
	}
	if err != nil {
		return status, err
	}

	now := uc.now()
	status.Present = true
	status.FetchedAt = record.FetchedAt()
	status.Age = record.Age(now)
	status.Fresh = record.IsFresh(now, uc.window)
	status.Count = len(record.Repositories)
	return status, nil
}

// ClearCache キャッシュを削除する（運用コマンド用）
func (uc *ShowcaseUseCase) ClearCache(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, uc.cacheKey)
}

// Apply 解決結果をsurfaceに反映する
func Apply(res Resolution, surface domain.ViewSurface) {
	switch res.Outcome {
	case OutcomeFresh, OutcomeFetched:
		surface.ShowRepositories(res.Repositories)
	case OutcomeStale:
		surface.ShowRepositories(res.Repositories)
		surface.ShowStaleWarning(res.StaleHours)
	case OutcomeEmpty:
		surface.ShowEmpty()
	default:
		surface.ShowFallback()
	}
}
