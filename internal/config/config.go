package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

// キャッシュバックエンド
const (
	CacheBackendFile   = "file"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendMySQL  = "mysql"
)

// Config アプリケーション全体の設定
type Config struct {
	Server ServerConfig `yaml:"server"`
	GitHub GitHubConfig `yaml:"github"`
	Cache  CacheConfig  `yaml:"cache"`
	Redis  RedisConfig  `yaml:"redis"`
	MySQL  MySQLConfig  `yaml:"mysql"`
	UI     UIConfig     `yaml:"ui"`
}

// ServerConfig HTTPサーバーの設定
type ServerConfig struct {
	Port string `yaml:"port"`
}

// GitHubConfig GitHub APIの設定
type GitHubConfig struct {
	Username   string        `yaml:"username"`
	Token      string        `yaml:"token"`
	BaseURL    string        `yaml:"base_url"`
	UserAgent  string        `yaml:"user_agent"`
	PerPage    int           `yaml:"per_page"`
	Timeout    time.Duration `yaml:"timeout"`
	ProfileURL string        `yaml:"profile_url"`
}

// CacheConfig キャッシュの設定
type CacheConfig struct {
	Backend         string        `yaml:"backend"`
	Key             string        `yaml:"key"`
	FreshnessWindow time.Duration `yaml:"freshness_window"`
	File            string        `yaml:"file"`
}

// RedisConfig Redisの設定
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQLの設定
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// UIConfig ページの表示設定
type UIConfig struct {
	Lang           string `yaml:"lang"`
	Title          string `yaml:"title"`
	Heading        string `yaml:"heading"`
	NoRepositories string `yaml:"no_repositories"`
	NoDescription  string `yaml:"no_description"`
	StaleWarning   string `yaml:"stale_warning"`
	Fallback       string `yaml:"fallback"`
	ProfileLink    string `yaml:"profile_link"`
}

// ProfilePageURL フォールバックでリンクするプロフィールURL
func (g GitHubConfig) ProfilePageURL() string {
	if g.ProfileURL != "" {
		return g.ProfileURL
	}
	return fmt.Sprintf("https://github.com/%s?tab=repositories", g.Username)
}

// Load 設定ファイルを読み込む
func Load(configPath string) (*Config, error) {
	// 設定ファイルが存在しない場合はデフォルト設定を返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数の展開
	dataStr := os.ExpandEnv(string(data))

	// 未指定の項目はデフォルト値のまま
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(dataStr), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// DefaultConfig デフォルト設定を返す
func DefaultConfig() *Config {
	// Redis/MySQLのホストはテスト環境では localhost を使用
	redisHost := "redis"
	mysqlHost := "mysql"
	if os.Getenv("GO_ENV") == "test" {
		redisHost = "localhost"
		mysqlHost = "localhost"
	}

	username := os.Getenv("GITHUB_USERNAME")
	if username == "" {
		username = "pilkxzc"
	}

	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		GitHub: GitHubConfig{
			Username:  username,
			Token:     os.Getenv("GITHUB_TOKEN"),
			UserAgent: "portfolio-app",
			PerPage:   100,
			Timeout:   5 * time.Second,
		},
		Cache: CacheConfig{
			Backend:         CacheBackendFile,
			FreshnessWindow: time.Hour,
			File:            defaultCacheFile(),
		},
		Redis: RedisConfig{
			Host:     redisHost,
			Port:     6379,
			Password: "",
			DB:       0,
		},
		MySQL: MySQLConfig{
			Host:     mysqlHost,
			Port:     3306,
			User:     "root",
			Password: os.Getenv("MYSQL_ROOT_PASSWORD"),
			Database: "portfolio",
		},
		UI: UIConfig{
			Lang:    "en",
			Title:   "Portfolio",
			Heading: "Projects",
		},
	}
}

// Validate 設定値を検証する
func (c *Config) Validate() error {
	if c.GitHub.Username == "" {
		return invalid("github.username", "username is required")
	}
	if c.GitHub.PerPage < 1 || c.GitHub.PerPage > 100 {
		return invalid("github.per_page", "per_page must be between 1 and 100")
	}
	if c.GitHub.Timeout <= 0 {
		return invalid("github.timeout", "timeout must be positive")
	}
	if c.Cache.FreshnessWindow <= 0 {
		return invalid("cache.freshness_window", "freshness window must be positive")
	}

	switch c.Cache.Backend {
	case CacheBackendFile:
		if c.Cache.File == "" {
			return invalid("cache.file", "file is required for the file backend")
		}
	case CacheBackendMemory, CacheBackendRedis, CacheBackendMySQL:
	default:
		return invalid("cache.backend", fmt.Sprintf("unknown cache backend %q", c.Cache.Backend))
	}

	return nil
}

// defaultCacheFile ホームディレクトリ配下のキャッシュファイル
func defaultCacheFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".portfolio-app", "cache.gob")
}

func invalid(field, message string) error {
	return errors.WithContext(errors.New(errors.CodeInvalidConfig, message), "field", field)
}

// Save 設定をファイルに保存する
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
