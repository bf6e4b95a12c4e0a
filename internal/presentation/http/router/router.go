package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"text-summarizer-app/internal/presentation/di"
	"text-summarizer-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// 要約エンドポイントを呼ぶルートのみレート制限する
	limited := middleware.RateLimit(container.Limiter(), container.Logger())

	// Web UI ハンドラー
	webHandler := container.WebHandler()
	mux.HandleFunc("/", webHandler.HandleIndex)
	mux.HandleFunc("/input", webHandler.HandleInput)
	mux.Handle("/summarize", limited(http.HandlerFunc(webHandler.HandleSummarize)))
	mux.HandleFunc("/clear", webHandler.HandleClear)
	mux.HandleFunc("/copy", webHandler.HandleCopy)
	mux.HandleFunc("/state", webHandler.HandleState)

	// Summary API ハンドラー
	apiHandler := container.APIHandler()
	mux.Handle("/api/v1/summarize", limited(http.HandlerFunc(apiHandler.HandleSummarize)))

	// Health check
	mux.Handle("/health", container.HealthHandler())

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(container.Registry(), promhttp.HandlerOpts{}))

	// ミドルウェアの適用
	var h http.Handler = mux
	h = middleware.Recovery(container.Logger())(h)
	h = middleware.RequestLogger(container.Logger(), true)(h)
	h = middleware.CORS(h)

	return h
}
