// Package web はテンプレートと静的ファイルを埋め込む
package web

import "embed"

// Templates HTMLテンプレート
//
//go:embed templates
var Templates embed.FS

// Static CSSなどの静的ファイル
//
//go:embed static
var Static embed.FS
