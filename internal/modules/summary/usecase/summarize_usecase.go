package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"text-summarizer-app/internal/modules/shared/infrastructure/metrics"
	"text-summarizer-app/internal/modules/summary/domain"
)

// SummarizeUseCase 要約のユースケース
type SummarizeUseCase struct {
	repo     domain.SummaryRepository
	cache    domain.CacheRepository
	cacheTTL time.Duration
	sanitize bool
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// Option SummarizeUseCaseの設定
type Option func(*SummarizeUseCase)

// WithCache 要約結果のキャッシュを有効化
func WithCache(cache domain.CacheRepository, ttl time.Duration) Option {
	return func(uc *SummarizeUseCase) {
		uc.cache = cache
		uc.cacheTTL = ttl
	}
}

// WithSanitize 送信前にdomain.Sanitizeを適用
func WithSanitize(enabled bool) Option {
	return func(uc *SummarizeUseCase) {
		uc.sanitize = enabled
	}
}

// WithMetrics メトリクス記録先を設定
func WithMetrics(rec metrics.Recorder) Option {
	return func(uc *SummarizeUseCase) {
		if rec != nil {
			uc.metrics = rec
		}
	}
}

// WithLogger ログ出力先を設定
func WithLogger(logger *slog.Logger) Option {
	return func(uc *SummarizeUseCase) {
		if logger != nil {
			uc.logger = logger
		}
	}
}

// NewSummarizeUseCase 新しいSummarizeUseCaseを作成
func NewSummarizeUseCase(repo domain.SummaryRepository, opts ...Option) *SummarizeUseCase {
	uc := &SummarizeUseCase{
		repo:    repo,
		metrics: metrics.NoopRecorder{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Summarize テキストを要約
func (uc *SummarizeUseCase) Summarize(ctx context.Context, text string) (*domain.SummaryResult, error) {
	// 入力検証
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	sent := text
	if uc.sanitize {
		sent = domain.Sanitize(text)
	}

	cacheKey := CacheKey(sent)

	// キャッシュチェック
	if uc.cache != nil {
		cached, err := uc.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			uc.metrics.RecordCache(true)
			result := domain.NewSummaryResult(text, sent, string(cached), uc.repo.ProviderName())
			result.CacheHit = true
			return result, nil
		case errors.Is(err, domain.ErrCacheMiss):
			uc.metrics.RecordCache(false)
		default:
			// キャッシュ障害は要約自体を止めない
			uc.logger.WarnContext(ctx, "Summary cache lookup failed", "error", err)
		}
	}

	start := time.Now()
	summary, err := uc.repo.Summarize(ctx, sent)
	uc.metrics.RecordSummarize(outcomeOf(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("summarization failed: %w", err)
	}

	result := domain.NewSummaryResult(text, sent, summary, uc.repo.ProviderName())
	// 空の要約は再試行の余地を残すためキャッシュしない
	if uc.cache != nil && !result.IsEmpty() {
		if err := uc.cache.Set(ctx, cacheKey, []byte(result.Summary), uc.cacheTTL); err != nil {
			uc.logger.WarnContext(ctx, "Summary cache store failed", "error", err)
		}
	}

	return result, nil
}

// GetProviderName プロバイダー名を取得
func (uc *SummarizeUseCase) GetProviderName() string {
	return uc.repo.ProviderName()
}

// CacheKey 送信テキストのキャッシュキー
func CacheKey(sent string) string {
	hash := sha256.Sum256([]byte(sent))
	return "summary:" + hex.EncodeToString(hash[:])
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	case domain.IsTransportError(err):
		return metrics.OutcomeTransport
	case domain.IsMalformedResponse(err):
		return metrics.OutcomeMalformed
	default:
		return metrics.OutcomeOther
	}
}
