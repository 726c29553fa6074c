package view

import (
	"html/template"

	"portfolio-app/internal/modules/portfolio/domain"
)

// HTMLSurface Rendererを使ってHTML断片を組み立てるViewSurface実装。
// Contentはマウントポイント（#github-repos）の中身、Warningはその直前に置く警告。
type HTMLSurface struct {
	renderer *Renderer
	Content  template.HTML
	Warning  template.HTML
	err      error
}

// NewHTMLSurface 新しいHTMLSurfaceを作成
func NewHTMLSurface(renderer *Renderer) *HTMLSurface {
	return &HTMLSurface{renderer: renderer}
}

// ShowRepositories リポジトリカードで中身を置き換える
func (s *HTMLSurface) ShowRepositories(repos []domain.Repository) {
	s.Content, s.err = s.renderer.RenderCards(repos)
}

// ShowEmpty 空メッセージで中身を置き換える
func (s *HTMLSurface) ShowEmpty() {
	s.Content, s.err = s.renderer.RenderEmpty()
}

// ShowFallback フォールバックパネルで中身を置き換える
func (s *HTMLSurface) ShowFallback() {
	s.Content, s.err = s.renderer.RenderFallback()
}

// ShowStaleWarning マウントポイントの前に警告を置く
func (s *HTMLSurface) ShowStaleWarning(hours int) {
	warning, err := s.renderer.RenderStaleWarning(hours)
	if err != nil {
		s.err = err
		return
	}
	s.Warning = warning
}

// Fragment 警告と中身を連結したHTML断片
func (s *HTMLSurface) Fragment() template.HTML {
	return s.Warning + s.Content
}

// Err 描画中に発生したエラー
func (s *HTMLSurface) Err() error {
	return s.err
}
