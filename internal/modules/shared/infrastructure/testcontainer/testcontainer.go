package testcontainer

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"portfolio-app/internal/config"
)

// RedisContainer Redisコンテナのラッパー
type RedisContainer struct {
	Container *rediscontainer.RedisContainer
	Host      string
	Port      int
}

// MySQLContainer MySQLコンテナのラッパー
type MySQLContainer struct {
	Container *mysql.MySQLContainer
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
}

// StartRedis Redisコンテナを起動
func StartRedis(ctx context.Context) (_ *RedisContainer, err error) {
	defer recoverProvider(&err)

	container, err := rediscontainer.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get redis port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to parse redis port: %w", err)
	}

	return &RedisContainer{Container: container, Host: host, Port: port}, nil
}

// StartMySQL MySQLコンテナを起動
func StartMySQL(ctx context.Context) (_ *MySQLContainer, err error) {
	defer recoverProvider(&err)

	const (
		database = "portfolio_test"
		user     = "testuser"
		password = "testpass"
	)

	container, err := mysql.Run(ctx,
		"mysql:8.0",
		mysql.WithDatabase(database),
		mysql.WithUsername(user),
		mysql.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, "3306")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mysql port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to parse mysql port: %w", err)
	}

	return &MySQLContainer{
		Container: container,
		Host:      host,
		Port:      port,
		Database:  database,
		User:      user,
		Password:  password,
	}, nil
}

// recoverProvider Dockerが見つからない場合のpanicをエラーに変換
func recoverProvider(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("container provider unavailable: %v", r)
	}
}

// RequireRedis Redisコンテナを起動し、テスト終了時に停止する。Dockerが使えない場合はスキップ
func RequireRedis(t *testing.T) *RedisContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	c, err := StartRedis(ctx)
	if err != nil {
		t.Skipf("Redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(ctx) })
	return c
}

// RequireMySQL MySQLコンテナを起動し、テスト終了時に停止する。Dockerが使えない場合はスキップ
func RequireMySQL(t *testing.T) *MySQLContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	c, err := StartMySQL(ctx)
	if err != nil {
		t.Skipf("MySQL container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(ctx) })
	return c
}

// Close Redisコンテナを停止
func (r *RedisContainer) Close(ctx context.Context) error {
	if r.Container != nil {
		return r.Container.Terminate(ctx)
	}
	return nil
}

// Close MySQLコンテナを停止
func (m *MySQLContainer) Close(ctx context.Context) error {
	if m.Container != nil {
		return m.Container.Terminate(ctx)
	}
	return nil
}

// Config コンテナに接続するRedis設定
func (r *RedisContainer) Config() *config.RedisConfig {
	return &config.RedisConfig{Host: r.Host, Port: r.Port}
}

// Config コンテナに接続するMySQL設定
func (m *MySQLContainer) Config() *config.MySQLConfig {
	return &config.MySQLConfig{
		Host:     m.Host,
		Port:     m.Port,
		User:     m.User,
		Password: m.Password,
		Database: m.Database,
	}
}
