package domain

import (
	"context"
	"time"
)

// SummaryRepository 要約エンドポイントのリポジトリインターフェース
type SummaryRepository interface {
	// Summarize テキストを送信して要約を取得
	Summarize(ctx context.Context, text string) (string, error)

	// ProviderName プロバイダー名を返す
	ProviderName() string
}

// CacheRepository キャッシュリポジトリのインターフェース
type CacheRepository interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}
