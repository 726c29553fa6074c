package di

import (
	"fmt"
	"io"

	"github.com/jmgilman/go/errors"

	"portfolio-app/internal/config"
	"portfolio-app/internal/modules/portfolio/domain"
	portfolioHandler "portfolio-app/internal/modules/portfolio/presentation/handler"
	"portfolio-app/internal/modules/portfolio/presentation/view"
	portfolioUsecase "portfolio-app/internal/modules/portfolio/usecase"
	sharedCache "portfolio-app/internal/modules/shared/infrastructure/cache"
	sharedDB "portfolio-app/internal/modules/shared/infrastructure/database"
	sharedGitHub "portfolio-app/internal/modules/shared/infrastructure/github"
	httpHandler "portfolio-app/internal/presentation/http/handler"
)

// Version アプリケーションのバージョン
const Version = "1.0.0"

// cacheRepository Closeを持つCacheStore
type cacheRepository interface {
	domain.CacheStore
	io.Closer
}

// Container DIコンテナ
type Container struct {
	cfg *config.Config

	// Shared Infrastructure
	cacheRepo cacheRepository
	source    *sharedGitHub.Source

	// Portfolio Module
	showcaseUseCase  *portfolioUsecase.ShowcaseUseCase
	renderer         *view.Renderer
	portfolioHandler *portfolioHandler.PortfolioHandler

	healthHandler *httpHandler.HealthHandler
}

// NewContainer 新しいContainerを作成
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	container := &Container{cfg: cfg}

	// Shared Infrastructure: Cache Repository
	cacheRepo, err := newCacheRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache repository: %w", err)
	}
	container.cacheRepo = cacheRepo

	// Shared Infrastructure: GitHub Source
	source, err := sharedGitHub.NewSource(&cfg.GitHub)
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize github source: %w", err)
	}
	container.source = source

	// Portfolio Module: UseCase
	showcaseUseCase := portfolioUsecase.NewShowcaseUseCase(source, cacheRepo, portfolioUsecase.ShowcaseOptions{
		Username:        cfg.GitHub.Username,
		CacheKey:        cfg.Cache.Key,
		FreshnessWindow: cfg.Cache.FreshnessWindow,
	})
	container.showcaseUseCase = showcaseUseCase

	// Portfolio Module: Renderer
	renderer, err := view.NewRenderer(cfg.GitHub.ProfilePageURL(), view.Messages{
		NoRepositories: cfg.UI.NoRepositories,
		NoDescription:  cfg.UI.NoDescription,
		StaleWarning:   cfg.UI.StaleWarning,
		Fallback:       cfg.UI.Fallback,
		ProfileLink:    cfg.UI.ProfileLink,
	}.Or(view.MessagesFor(cfg.UI.Lang)))
	if err != nil {
		_ = container.Close()
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}
	container.renderer = renderer

	// Portfolio Module: Handler
	container.portfolioHandler = portfolioHandler.NewPortfolioHandler(showcaseUseCase, renderer, portfolioHandler.PageOptions{
		Lang:     cfg.UI.Lang,
		Title:    cfg.UI.Title,
		Heading:  cfg.UI.Heading,
		Username: cfg.GitHub.Username,
	})

	// Health Check: 外部のキャッシュサーバーのみ確認
	var checker httpHandler.CacheCheckerInterface
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis, config.CacheBackendMySQL:
		checker = cacheRepo
	}
	container.healthHandler = httpHandler.NewHealthHandler(Version, checker, showcaseUseCase.CacheKey())

	return container, nil
}

// newCacheRepository 設定に応じたキャッシュバックエンドを作成
func newCacheRepository(cfg *config.Config) (cacheRepository, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		repo, err := sharedCache.NewRedisRepository(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.CacheBackendMySQL:
		repo, err := sharedDB.NewBunCacheRepository(&cfg.MySQL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.CacheBackendFile:
		repo, err := sharedCache.NewFileRepository(cfg.Cache.File)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.CacheBackendMemory, "":
		return sharedCache.NewMemoryRepository(), nil
	default:
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "unknown cache backend"),
			"backend", cfg.Cache.Backend,
		)
	}
}

// Config 設定を取得
func (c *Container) Config() *config.Config {
	return c.cfg
}

// CacheRepository キャッシュストアを取得
func (c *Container) CacheRepository() domain.CacheStore {
	return c.cacheRepo
}

// ShowcaseUseCase ショーケースユースケースを取得
func (c *Container) ShowcaseUseCase() *portfolioUsecase.ShowcaseUseCase {
	return c.showcaseUseCase
}

// Renderer レンダラーを取得
func (c *Container) Renderer() *view.Renderer {
	return c.renderer
}

// PortfolioHandler ポートフォリオハンドラーを取得
func (c *Container) PortfolioHandler() *portfolioHandler.PortfolioHandler {
	return c.portfolioHandler
}

// HealthHandler ヘルスチェックハンドラーを取得
func (c *Container) HealthHandler() *httpHandler.HealthHandler {
	return c.healthHandler
}

// Close リソースをクローズ
func (c *Container) Close() error {
	if c.cacheRepo != nil {
		repo := c.cacheRepo
		c.cacheRepo = nil
		if err := repo.Close(); err != nil {
			return fmt.Errorf("failed to close cache repository: %w", err)
		}
	}

	return nil
}
