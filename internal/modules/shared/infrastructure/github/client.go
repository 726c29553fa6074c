// Package github GitHub REST APIからリポジトリ一覧を取得するRepositorySource実装
package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v67/github"
	"github.com/jmgilman/go/errors"
	"golang.org/x/oauth2"

	"portfolio-app/internal/config"
	"portfolio-app/internal/modules/portfolio/domain"
)

const (
	defaultPerPage = 100
	defaultTimeout = 5 * time.Second
	sortUpdated    = "updated"
)

// Source go-githubを用いたRepositorySource
type Source struct {
	client  *gh.Client
	perPage int
	timeout time.Duration
}

// NewSource 設定からSourceを作成。トークンがあればOAuth2で認証する
func NewSource(cfg *config.GitHubConfig) (*Source, error) {
	httpClient := &http.Client{}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	client := gh.NewClient(httpClient)
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.BaseURL != "" {
		baseURL, err := parseBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = baseURL
	}

	return NewSourceWithClient(client, cfg.PerPage, cfg.Timeout), nil
}

// NewSourceWithClient go-githubクライアントから作成（テスト用）
func NewSourceWithClient(client *gh.Client, perPage int, timeout time.Duration) *Source {
	if perPage <= 0 || perPage > defaultPerPage {
		perPage = defaultPerPage
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Source{client: client, perPage: perPage, timeout: timeout}
}

// ListRepositories 更新日時の新しい順に1ページ分のリポジトリを取得
func (s *Source) ListRepositories(ctx context.Context, username string) ([]domain.Repository, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := &gh.RepositoryListByUserOptions{
		Sort:        sortUpdated,
		ListOptions: gh.ListOptions{PerPage: s.perPage},
	}

	repos, resp, err := s.client.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		return nil, errors.WithContext(wrapError(err, resp), "user", username)
	}
	// 空ボディや null はgo-githubではエラーにならない
	if repos == nil {
		return nil, errors.WithContext(domain.MalformedResponse(nil, "response body is not a repository list"), "user", username)
	}

	result := make([]domain.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo == nil {
			return nil, errors.WithContext(domain.MalformedResponse(nil, "response contains a null repository"), "user", username)
		}
		result = append(result, convertRepository(repo))
	}
	return result, nil
}

// convertRepository go-githubのRepositoryをドメインモデルに変換
func convertRepository(repo *gh.Repository) domain.Repository {
	return domain.Repository{
		Name:        repo.GetName(),
		Description: repo.GetDescription(),
		HTMLURL:     repo.GetHTMLURL(),
		StarCount:   repo.GetStargazersCount(),
		ForkCount:   repo.GetForksCount(),
		Language:    repo.GetLanguage(),
		IsFork:      repo.GetFork(),
	}
}

// wrapError go-githubのエラーをドメインのエラーコードに変換
func wrapError(err error, resp *gh.Response) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return domain.MalformedResponse(err, "failed to decode repository list")
	}

	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	var ghErr *gh.ErrorResponse
	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var acceptedErr *gh.AcceptedError
	switch {
	case errors.As(err, &ghErr) && ghErr.Response != nil:
		statusCode = ghErr.Response.StatusCode
	case errors.As(err, &rateErr) && rateErr.Response != nil:
		statusCode = rateErr.Response.StatusCode
	case errors.As(err, &abuseErr) && abuseErr.Response != nil:
		statusCode = abuseErr.Response.StatusCode
	case errors.As(err, &acceptedErr):
		statusCode = http.StatusAccepted
	}

	wrapped := domain.SourceUnavailable(err, "failed to list repositories")
	if statusCode != 0 {
		return errors.WithContext(wrapped, "status", statusCode)
	}
	return wrapped
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "invalid github base url"),
			"field", "github.base_url",
		)
	}
	return u, nil
}
