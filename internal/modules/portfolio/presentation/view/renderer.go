package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"portfolio-app/internal/modules/portfolio/domain"
	"portfolio-app/web"
)

const (
	// RevealStep カードごとの表示遅延の増分
	RevealStep = 50 * time.Millisecond
	// RevealDuration 不透明度と縦位置のトランジション時間
	RevealDuration = 500 * time.Millisecond
)

// RevealDelay i番目（0始まり）のカードが表示されるまでの遅延
func RevealDelay(i int) time.Duration {
	return time.Duration(i) * RevealStep
}

// Messages 画面に表示する文言
type Messages struct {
	NoRepositories string
	NoDescription  string
	StaleWarning   string // {hours} を経過時間で置換
	Fallback       string
	ProfileLink    string
}

// DefaultMessages デフォルト（英語）の文言
func DefaultMessages() Messages {
	return Messages{
		NoRepositories: "No repositories found",
		NoDescription:  "No description",
		StaleWarning:   "⚠️ Data updated {hours}h ago (API unavailable)",
		Fallback:       "The GitHub API is temporarily unavailable. All projects are available at:",
		ProfileLink:    "Open GitHub Profile",
	}
}

// UkrainianMessages ウクライナ語の文言
func UkrainianMessages() Messages {
	return Messages{
		NoRepositories: "Репозиторії не знайдено",
		NoDescription:  "Без опису",
		StaleWarning:   "⚠️ Дані оновлено {hours}г тому (API недоступний)",
		Fallback:       "GitHub API тимчасово недоступний. Переглянути всі проєкти можна на:",
		ProfileLink:    "Відкрити GitHub Profile",
	}
}

// MessagesFor ページの言語に対応する文言。未対応の言語は英語
func MessagesFor(lang string) Messages {
	switch strings.ToLower(lang) {
	case "uk", "uk-ua":
		return UkrainianMessages()
	default:
		return DefaultMessages()
	}
}

// Or 空の項目をbaseで補う
func (m Messages) Or(base Messages) Messages {
	if m.NoRepositories == "" {
		m.NoRepositories = base.NoRepositories
	}
	if m.NoDescription == "" {
		m.NoDescription = base.NoDescription
	}
	if m.StaleWarning == "" {
		m.StaleWarning = base.StaleWarning
	}
	if m.Fallback == "" {
		m.Fallback = base.Fallback
	}
	if m.ProfileLink == "" {
		m.ProfileLink = base.ProfileLink
	}
	return m
}

// PageData ページ全体のテンプレートデータ
type PageData struct {
	Lang       string
	Title      string
	Heading    string
	Username   string
	ProfileURL string
	Year       int
	Outcome    string
	Warning    template.HTML
	Content    template.HTML
}

// Renderer リポジトリ一覧やフォールバックのHTMLを生成する
type Renderer struct {
	templates  *template.Template
	messages   Messages
	profileURL string
}

// NewRenderer 新しいRendererを作成
func NewRenderer(profileURL string, messages Messages) (*Renderer, error) {
	funcMap := template.FuncMap{
		"revealDelay": func(i int) int64 {
			return RevealDelay(i).Milliseconds()
		},
	}

	tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Renderer{
		templates:  tmpl,
		messages:   messages.Or(DefaultMessages()),
		profileURL: profileURL,
	}, nil
}

// ProfileURL フォールバックでリンクするプロフィールURL
func (r *Renderer) ProfileURL() string {
	return r.profileURL
}

// RenderCards リポジトリごとに1枚のカードを入力順に生成
func (r *Renderer) RenderCards(repos []domain.Repository) (template.HTML, error) {
	return r.execute("repo_cards", map[string]interface{}{
		"Repos":         repos,
		"NoDescription": r.messages.NoDescription,
	})
}

// RenderEmpty 「リポジトリが見つからない」メッセージを生成
func (r *Renderer) RenderEmpty() (template.HTML, error) {
	return r.execute("repo_empty", map[string]interface{}{
		"Message": r.messages.NoRepositories,
	})
}

// RenderStaleWarning 古いデータの警告を生成
func (r *Renderer) RenderStaleWarning(hours int) (template.HTML, error) {
	message := strings.ReplaceAll(r.messages.StaleWarning, "{hours}", strconv.Itoa(hours))
	return r.execute("repo_stale_warning", map[string]interface{}{
		"Message": message,
	})
}

// RenderFallback プロフィールへのリンクを含む静的パネルを生成
func (r *Renderer) RenderFallback() (template.HTML, error) {
	return r.execute("repo_fallback", map[string]interface{}{
		"Message":    r.messages.Fallback,
		"ProfileURL": r.profileURL,
		"LinkText":   r.messages.ProfileLink,
	})
}

// RenderPage ページ全体を書き出す
func (r *Renderer) RenderPage(w io.Writer, data PageData) error {
	if err := r.templates.ExecuteTemplate(w, "base.html", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

func (r *Renderer) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	// テンプレートの出力はエスケープ済み
	return template.HTML(buf.String()), nil
}
