package view

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"portfolio-app/internal/modules/portfolio/domain"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("https://github.com/octo?tab=repositories", Messages{})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	return r
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// findByClass classを持つ要素を文書順に集める
func findByClass(n *html.Node, class string) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			result = append(result, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return result
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func parseFragment(t *testing.T, fragment string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("html.Parse() error = %v", err)
	}
	return doc
}

func TestRevealDelay(t *testing.T) {
	tests := []struct {
		index int
		want  time.Duration
	}{
		{0, 0},
		{1, 50 * time.Millisecond},
		{4, 200 * time.Millisecond},
		{20, time.Second},
	}

	for _, tt := range tests {
		if got := RevealDelay(tt.index); got != tt.want {
			t.Errorf("RevealDelay(%d) = %v, want %v", tt.index, got, tt.want)
		}
	}
}

func TestRenderer_RenderCards(t *testing.T) {
	r := newTestRenderer(t)
	repos := []domain.Repository{
		{Name: "alpha", Description: "first", HTMLURL: "https://github.com/octo/alpha", StarCount: 20, ForkCount: 3, Language: "Go"},
		{Name: "beta", HTMLURL: "https://github.com/octo/beta", StarCount: 5},
		{Name: "gamma", Description: "third", HTMLURL: "https://github.com/octo/gamma", StarCount: 1, Language: "Rust"},
	}

	out, err := r.RenderCards(repos)
	if err != nil {
		t.Fatalf("RenderCards() error = %v", err)
	}

	cards := findByClass(parseFragment(t, string(out)), "repo-card")
	if len(cards) != len(repos) {
		t.Fatalf("card count = %d, want %d", len(cards), len(repos))
	}

	for i, card := range cards {
		repo := repos[i]

		if got := attr(card, "href"); got != repo.HTMLURL {
			t.Errorf("card %d href = %s, want %s", i, got, repo.HTMLURL)
		}
		if got := attr(card, "target"); got != "_blank" {
			t.Errorf("card %d target = %s, want _blank", i, got)
		}
		if name := findByClass(card, "repo-name"); len(name) != 1 || textOf(name[0]) != repo.Name {
			t.Errorf("card %d name mismatch", i)
		}

		wantDelay := fmt.Sprintf("animation-delay: %dms", i*50)
		if got := attr(card, "style"); got != wantDelay {
			t.Errorf("card %d style = %q, want %q", i, got, wantDelay)
		}

		stars := findByClass(card, "repo-stars")
		forks := findByClass(card, "repo-forks")
		if len(stars) != 1 || len(forks) != 1 {
			t.Fatalf("card %d: missing stats", i)
		}
		if textOf(stars[0]) != strconv.Itoa(repo.StarCount) || textOf(forks[0]) != strconv.Itoa(repo.ForkCount) {
			t.Errorf("card %d stats = %s/%s", i, textOf(stars[0]), textOf(forks[0]))
		}
	}

	// 説明なしはプレースホルダー
	if desc := findByClass(cards[1], "repo-description"); textOf(desc[0]) != "No description" {
		t.Errorf("placeholder = %q, want %q", textOf(desc[0]), "No description")
	}

	// 言語なしは要素ごと省略
	if lang := findByClass(cards[1], "repo-language"); len(lang) != 0 {
		t.Error("language span should be omitted when absent")
	}
	if lang := findByClass(cards[2], "repo-language"); len(lang) != 1 || textOf(lang[0]) != "Rust" {
		t.Error("language span should be rendered when present")
	}
}

func TestRenderer_RenderCards_Empty(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderCards(nil)
	if err != nil {
		t.Fatalf("RenderCards() error = %v", err)
	}
	if cards := findByClass(parseFragment(t, string(out)), "repo-card"); len(cards) != 0 {
		t.Errorf("card count = %d, want 0", len(cards))
	}
}

func TestRenderer_RenderCards_Escaping(t *testing.T) {
	r := newTestRenderer(t)
	repos := []domain.Repository{
		{Name: `<script>alert(1)</script>`, Description: `"quoted" & <b>bold</b>`, HTMLURL: "javascript:alert(1)"},
	}

	out, err := r.RenderCards(repos)
	if err != nil {
		t.Fatalf("RenderCards() error = %v", err)
	}

	s := string(out)
	if strings.Contains(s, "<script>") {
		t.Error("repository name must be escaped")
	}
	if strings.Contains(s, "<b>bold</b>") {
		t.Error("description must be escaped")
	}
	if strings.Contains(s, `href="javascript:`) {
		t.Error("unsafe URL must be sanitized")
	}
}

func TestRenderer_RenderEmpty(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderEmpty()
	if err != nil {
		t.Fatalf("RenderEmpty() error = %v", err)
	}
	if !strings.Contains(string(out), "No repositories found") {
		t.Errorf("output = %s", out)
	}
}

func TestRenderer_RenderStaleWarning(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderStaleWarning(2)
	if err != nil {
		t.Fatalf("RenderStaleWarning() error = %v", err)
	}

	warnings := findByClass(parseFragment(t, string(out)), "cache-warning")
	if len(warnings) != 1 {
		t.Fatalf("warning count = %d, want 1", len(warnings))
	}
	if !strings.Contains(textOf(warnings[0]), "2h ago") {
		t.Errorf("warning = %q, want it to contain the age in hours", textOf(warnings[0]))
	}
}

func TestRenderer_RenderFallback(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.RenderFallback()
	if err != nil {
		t.Fatalf("RenderFallback() error = %v", err)
	}

	doc := parseFragment(t, string(out))
	panels := findByClass(doc, "fallback-message")
	if len(panels) != 1 {
		t.Fatalf("panel count = %d, want 1", len(panels))
	}
	links := findByClass(doc, "github-link-btn")
	if len(links) != 1 {
		t.Fatalf("link count = %d, want 1", len(links))
	}
	if got := attr(links[0], "href"); got != "https://github.com/octo?tab=repositories" {
		t.Errorf("href = %s", got)
	}
	if got := attr(links[0], "target"); got != "_blank" {
		t.Errorf("target = %s, want _blank", got)
	}
}

func TestRenderer_CustomMessages(t *testing.T) {
	r, err := NewRenderer("https://github.com/u", Messages{
		NoRepositories: "Репозиторії не знайдено",
		StaleWarning:   "⚠️ Дані оновлено {hours}г тому (API недоступний)",
	})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	empty, _ := r.RenderEmpty()
	if !strings.Contains(string(empty), "Репозиторії не знайдено") {
		t.Errorf("empty = %s", empty)
	}

	warning, _ := r.RenderStaleWarning(3)
	if !strings.Contains(string(warning), "3г тому") {
		t.Errorf("warning = %s", warning)
	}

	// 未設定の項目はデフォルト
	cards, _ := r.RenderCards([]domain.Repository{{Name: "x", HTMLURL: "https://github.com/u/x"}})
	if !strings.Contains(string(cards), "No description") {
		t.Error("expected default placeholder for unset message")
	}
}

func TestMessagesFor(t *testing.T) {
	tests := []struct {
		name           string
		lang           string
		wantEmpty      string
		wantNoDesc     string
		wantProfileBtn string
	}{
		{name: "正常系: 英語", lang: "en", wantEmpty: "No repositories found", wantNoDesc: "No description", wantProfileBtn: "Open GitHub Profile"},
		{name: "正常系: ウクライナ語", lang: "uk", wantEmpty: "Репозиторії не знайдено", wantNoDesc: "Без опису", wantProfileBtn: "Відкрити GitHub Profile"},
		{name: "正常系: 大文字と地域付き", lang: "UK-UA", wantEmpty: "Репозиторії не знайдено", wantNoDesc: "Без опису", wantProfileBtn: "Відкрити GitHub Profile"},
		{name: "境界値: 未対応の言語は英語", lang: "fr", wantEmpty: "No repositories found", wantNoDesc: "No description", wantProfileBtn: "Open GitHub Profile"},
		{name: "境界値: 空", lang: "", wantEmpty: "No repositories found", wantNoDesc: "No description", wantProfileBtn: "Open GitHub Profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MessagesFor(tt.lang)
			if m.NoRepositories != tt.wantEmpty {
				t.Errorf("NoRepositories = %s, want %s", m.NoRepositories, tt.wantEmpty)
			}
			if m.NoDescription != tt.wantNoDesc {
				t.Errorf("NoDescription = %s, want %s", m.NoDescription, tt.wantNoDesc)
			}
			if m.ProfileLink != tt.wantProfileBtn {
				t.Errorf("ProfileLink = %s, want %s", m.ProfileLink, tt.wantProfileBtn)
			}
			if !strings.Contains(m.StaleWarning, "{hours}") {
				t.Errorf("StaleWarning = %s, want {hours} placeholder", m.StaleWarning)
			}
		})
	}
}

func TestRenderer_UkrainianMessages(t *testing.T) {
	// 一部だけ上書きし、残りはウクライナ語で補う
	messages := Messages{ProfileLink: "GitHub"}.Or(MessagesFor("uk"))
	r, err := NewRenderer("https://github.com/u?tab=repositories", messages)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	cards, _ := r.RenderCards([]domain.Repository{{Name: "x", HTMLURL: "https://github.com/u/x"}})
	if !strings.Contains(string(cards), "Без опису") {
		t.Errorf("cards = %s, want Ukrainian placeholder", cards)
	}

	warning, _ := r.RenderStaleWarning(2)
	if !strings.Contains(string(warning), "Дані оновлено 2г тому") {
		t.Errorf("warning = %s", warning)
	}

	fallback, _ := r.RenderFallback()
	if !strings.Contains(string(fallback), "тимчасово недоступний") {
		t.Errorf("fallback = %s", fallback)
	}
	if strings.Contains(string(fallback), "Відкрити") {
		t.Errorf("fallback = %s, overridden link text should replace the default", fallback)
	}
}

func TestRenderer_RenderPage(t *testing.T) {
	r := newTestRenderer(t)
	content, _ := r.RenderCards([]domain.Repository{{Name: "alpha", HTMLURL: "https://github.com/octo/alpha"}})
	warning, _ := r.RenderStaleWarning(4)

	var buf bytes.Buffer
	err := r.RenderPage(&buf, PageData{
		Lang:       "en",
		Title:      "octo",
		Heading:    "Projects",
		Username:   "octo",
		ProfileURL: r.ProfileURL(),
		Year:       2026,
		Outcome:    "stale",
		Warning:    warning,
		Content:    content,
	})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	doc := parseFragment(t, buf.String())
	grids := findByClass(doc, "repos-grid")
	if len(grids) != 1 || attr(grids[0], "id") != "github-repos" {
		t.Fatal("mount point #github-repos not found")
	}
	if cards := findByClass(grids[0], "repo-card"); len(cards) != 1 {
		t.Errorf("cards in mount point = %d, want 1", len(cards))
	}

	// 警告はマウントポイントの直前の兄弟要素
	prev := grids[0].PrevSibling
	for prev != nil && prev.Type != html.ElementNode {
		prev = prev.PrevSibling
	}
	if prev == nil || !hasClass(prev, "cache-warning") {
		t.Error("stale warning should be placed before the mount point")
	}
}
