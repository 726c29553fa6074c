package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/jmgilman/go/errors"
)

// FreshnessWindow キャッシュを新鮮とみなす最大経過時間
const FreshnessWindow = time.Hour

// CacheKeyPrefix ユーザーごとのキャッシュキーの接頭辞
const CacheKeyPrefix = "github_repos_"

// CacheKey ユーザー名からキャッシュキーを生成
func CacheKey(username string) string {
	return CacheKeyPrefix + username
}

// CacheRecord キャッシュに保存するリポジトリ一覧とその取得時刻。
// 保存時には常にフィルタ・ソート済みの完全な一覧を持つ。
type CacheRecord struct {
	Repositories []Repository `json:"repos"`
	Timestamp    int64        `json:"timestamp"` // epoch millis
}

// NewCacheRecord 新しいCacheRecordを作成
func NewCacheRecord(repos []Repository, fetchedAt time.Time) *CacheRecord {
	if repos == nil {
		repos = []Repository{}
	}
	return &CacheRecord{
		Repositories: repos,
		Timestamp:    fetchedAt.UnixMilli(),
	}
}

// FetchedAt 取得時刻
func (r *CacheRecord) FetchedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Age nowを基準にした経過時間（ミリ秒精度）
func (r *CacheRecord) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-r.Timestamp) * time.Millisecond
}

// IsFresh 経過時間がwindow未満なら新鮮。ちょうどwindowの場合は古いとみなす。
func (r *CacheRecord) IsFresh(now time.Time, window time.Duration) bool {
	return r.Age(now) < window
}

// StaleHours 経過時間を時間単位に四捨五入する（0.5は切り上げ）
func StaleHours(age time.Duration) int {
	if age <= 0 {
		return 0
	}
	hours := float64(age.Milliseconds()) / float64(time.Hour.Milliseconds())
	return int(math.Floor(hours + 0.5))
}

// Encode JSONにシリアライズ
func (r *CacheRecord) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode cache record")
	}
	return data, nil
}

// DecodeCacheRecord JSONからCacheRecordを復元
func DecodeCacheRecord(data []byte) (*CacheRecord, error) {
	var record CacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, CodeMalformedRecord, "failed to decode cache record")
	}
	if record.Repositories == nil {
		return nil, errors.New(CodeMalformedRecord, "cache record has no repository list")
	}
	return &record, nil
}
