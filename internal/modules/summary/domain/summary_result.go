package domain

import "time"

// SummaryResult 要約結果のエンティティ
type SummaryResult struct {
	OriginalText string
	SentText     string
	Summary      string
	Provider     string
	CacheHit     bool
	ProcessedAt  time.Time
}

// NewSummaryResult 新しいSummaryResultを作成
func NewSummaryResult(originalText, sentText, summary, provider string) *SummaryResult {
	return &SummaryResult{
		OriginalText: originalText,
		SentText:     sentText,
		Summary:      summary,
		Provider:     provider,
		ProcessedAt:  time.Now(),
	}
}

// IsEmpty 要約が空かどうか
func (r *SummaryResult) IsEmpty() bool {
	return r == nil || r.Summary == ""
}

// CompressionRatio 元テキストに対する要約の長さの比率（文字数ベース）
func (r *SummaryResult) CompressionRatio() float64 {
	original := len([]rune(r.OriginalText))
	if original == 0 {
		return 0
	}
	return float64(len([]rune(r.Summary))) / float64(original)
}
