package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Version アプリケーションのバージョン
const Version = "1.0.0"

// Pinger 疎通確認できる依存先
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler ヘルスチェックのハンドラー
type HealthHandler struct {
	cache    Pinger
	sessions func() int
	timeout  time.Duration
}

// NewHealthHandler 新しいHealthHandlerを作成
// cacheがnilの場合はキャッシュを"disabled"として報告する
func NewHealthHandler(cache Pinger, sessions func() int) *HealthHandler {
	return &HealthHandler{
		cache:    cache,
		sessions: sessions,
		timeout:  2 * time.Second,
	}
}

// HealthResponse ヘルスチェックのレスポンス
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Cache    string `json:"cache"`
	Sessions int    `json:"sessions"`
}

// ServeHTTP ヘルスチェックを処理
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "ok",
		Version: Version,
		Cache:   "disabled",
	}
	status := http.StatusOK

	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			response.Status = "degraded"
			response.Cache = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			response.Cache = "ok"
		}
	}
	if h.sessions != nil {
		response.Sessions = h.sessions()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
