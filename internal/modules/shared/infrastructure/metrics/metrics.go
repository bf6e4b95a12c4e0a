package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 要約結果のラベル値
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed_response"
	OutcomeCanceled  = "canceled"
	OutcomeOther     = "error"
)

// Recorder 要約処理のメトリクス記録インターフェース
type Recorder interface {
	// RecordSummarize 要約1回分の結果と所要時間を記録
	RecordSummarize(outcome string, duration time.Duration)
	// RecordCache キャッシュのヒット/ミスを記録
	RecordCache(hit bool)
	// SetActiveSessions 保持中の画面セッション数を設定
	SetActiveSessions(n int)
}

// PrometheusRecorder Prometheusによる実装
type PrometheusRecorder struct {
	requests       *prometheus.CounterVec
	duration       prometheus.Histogram
	cache          *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

// NewPrometheusRecorder regにメトリクスを登録して返す
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "summarizer",
			Name:      "requests_total",
			Help:      "Summarization requests by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "summarizer",
			Name:      "request_duration_seconds",
			Help:      "Time spent waiting for the summarization endpoint.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "summarizer",
			Name:      "cache_lookups_total",
			Help:      "Summary cache lookups by result.",
		}, []string{"result"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "summarizer",
			Name:      "active_sessions",
			Help:      "View sessions currently held in memory.",
		}),
	}
}

// RecordSummarize 要約1回分の結果と所要時間を記録
func (p *PrometheusRecorder) RecordSummarize(outcome string, duration time.Duration) {
	p.requests.WithLabelValues(outcome).Inc()
	p.duration.Observe(duration.Seconds())
}

// RecordCache キャッシュのヒット/ミスを記録
func (p *PrometheusRecorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cache.WithLabelValues(result).Inc()
}

// SetActiveSessions 保持中の画面セッション数を設定
func (p *PrometheusRecorder) SetActiveSessions(n int) {
	p.activeSessions.Set(float64(n))
}

// NoopRecorder 何も記録しない実装（テスト・CLI用）
type NoopRecorder struct{}

func (NoopRecorder) RecordSummarize(string, time.Duration) {}
func (NoopRecorder) RecordCache(bool)                      {}
func (NoopRecorder) SetActiveSessions(int)                 {}
