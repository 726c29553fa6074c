package domain

import (
	"github.com/jmgilman/go/errors"
)

// エラーコード
const (
	// CodeSourceUnavailable 非2xxレスポンス、通信エラー、タイムアウト
	CodeSourceUnavailable = errors.CodeUnavailable
	// CodeMalformedResponse レスポンスボディを解釈できない
	CodeMalformedResponse = errors.CodeInvalidInput
	// CodeMalformedRecord キャッシュの内容を解釈できない
	CodeMalformedRecord = errors.CodeSchemaFailed
	// CodeCacheMiss キャッシュにキーが存在しない
	CodeCacheMiss = errors.CodeNotFound
	// CodeCacheFailure キャッシュバックエンドの障害
	CodeCacheFailure = errors.CodeDatabase
)

// SourceUnavailable リポジトリ取得元が利用できないことを示すエラーを作成
func SourceUnavailable(cause error, message string) errors.PlatformError {
	if cause == nil {
		return errors.New(CodeSourceUnavailable, message)
	}
	return errors.Wrap(cause, CodeSourceUnavailable, message)
}

// MalformedResponse レスポンスを解釈できないことを示すエラーを作成
func MalformedResponse(cause error, message string) errors.PlatformError {
	if cause == nil {
		return errors.New(CodeMalformedResponse, message)
	}
	return errors.Wrap(cause, CodeMalformedResponse, message)
}

// CacheMiss キャッシュミスのエラーを作成
func CacheMiss(key string) errors.PlatformError {
	return errors.WithContext(errors.New(CodeCacheMiss, "cache not found"), "key", key)
}

// IsSourceUnavailable SourceUnavailableか判定
func IsSourceUnavailable(err error) bool {
	return errors.GetCode(err) == CodeSourceUnavailable
}

// IsMalformedResponse MalformedResponseか判定
func IsMalformedResponse(err error) bool {
	return errors.GetCode(err) == CodeMalformedResponse
}

// IsCacheMiss キャッシュミスか判定
func IsCacheMiss(err error) bool {
	return errors.GetCode(err) == CodeCacheMiss
}
