package domain

import (
	"cmp"
	"slices"
)

// Repository GitHubリポジトリ（取得後は不変）
type Repository struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HTMLURL     string `json:"html_url"`
	StarCount   int    `json:"stargazers_count"`
	ForkCount   int    `json:"forks_count"`
	Language    string `json:"language,omitempty"`
	IsFork      bool   `json:"fork"`
}

// HasDescription 説明文があるか
func (r Repository) HasDescription() bool {
	return r.Description != ""
}

// HasLanguage 主要言語があるか
func (r Repository) HasLanguage() bool {
	return r.Language != ""
}

// FilterAndSort フォークを除外し、スター数の降順に並べ替える。
// 同じスター数の間では入力順を保持する。入力スライスは変更しない。
func FilterAndSort(repos []Repository) []Repository {
	result := make([]Repository, 0, len(repos))
	for _, repo := range repos {
		if repo.IsFork {
			continue
		}
		result = append(result, repo)
	}

	slices.SortStableFunc(result, func(a, b Repository) int {
		return cmp.Compare(b.StarCount, a.StarCount)
	})

	return result
}
