package cache

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/modules/shared/infrastructure/testcontainer"
	"text-summarizer-app/internal/modules/summary/domain"
)

func setupRedisRepo(t *testing.T) (*RedisRepository, *testcontainer.RedisContainer, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	// TestContainer起動
	redisContainer, err := testcontainer.StartRedis(ctx, t)
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}

	port, err := strconv.Atoi(redisContainer.Port)
	if err != nil {
		_ = redisContainer.Close(ctx)
		t.Fatalf("Failed to parse redis port: %v", err)
	}
	repo, err := NewRedisRepository(&config.RedisConfig{
		Host: redisContainer.Host,
		Port: port,
		DB:   0,
	})
	if err != nil {
		_ = redisContainer.Close(ctx)
		t.Fatalf("Failed to create redis repository: %v", err)
	}

	return repo, redisContainer, func() {
		_ = repo.Close()
		_ = redisContainer.Close(ctx)
	}
}

func TestNewRedisRepository_ConnectionFailure(t *testing.T) {
	// 使われていないポートへの接続は失敗する
	_, err := NewRedisRepository(&config.RedisConfig{Host: "127.0.0.1", Port: 1})
	if err == nil {
		t.Error("NewRedisRepository() expected error for unreachable redis")
	}
}

func TestRedisRepository_SetGet(t *testing.T) {
	repo, _, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{name: "正常系: 通常の値", key: "test:key1", value: []byte("summary text")},
		{name: "正常系: マルチバイト", key: "test:key2", value: []byte("要約テキスト")},
		{name: "正常系: 長い値", key: "test:key3", value: make([]byte, 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Set(ctx, tt.key, tt.value, time.Hour); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := repo.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != string(tt.value) {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestRedisRepository_GetMiss(t *testing.T) {
	repo, _, cleanup := setupRedisRepo(t)
	defer cleanup()

	_, err := repo.Get(context.Background(), "test:nonexistent")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestRedisRepository_KeyPrefix(t *testing.T) {
	repo, container, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()
	if err := repo.Set(ctx, "prefixed", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	client := container.NewRedisClient()
	defer func() { _ = client.Close() }()

	// 生のキーは名前空間付きで保存される
	n, err := client.Exists(ctx, "summarizer:prefixed").Result()
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if n != 1 {
		t.Error("expected key to be stored under the summarizer: prefix")
	}
}

func TestRedisRepository_Expiration(t *testing.T) {
	repo, _, cleanup := setupRedisRepo(t)
	defer cleanup()

	ctx := context.Background()
	if err := repo.Set(ctx, "test:ttl", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := repo.Get(ctx, "test:ttl"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected expired key to miss, got %v", err)
	}
}

func TestRedisRepository_Ping(t *testing.T) {
	repo, _, cleanup := setupRedisRepo(t)
	defer cleanup()

	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
