package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"text-summarizer-app/internal/modules/summary/domain"
)

// SummarizeUseCaseInterface 要約ユースケースのインターフェース
type SummarizeUseCaseInterface interface {
	Summarize(ctx context.Context, text string) (*domain.SummaryResult, error)
	GetProviderName() string
}

// APIHandler 要約APIのハンドラー
type APIHandler struct {
	summarizeUseCase SummarizeUseCaseInterface
	logger           *slog.Logger
}

// NewAPIHandler 新しいAPIHandlerを作成（loggerがnilならslog.Default）
func NewAPIHandler(summarizeUseCase SummarizeUseCaseInterface, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		summarizeUseCase: summarizeUseCase,
		logger:           logger,
	}
}

// SummarizeRequest 要約APIリクエスト
type SummarizeRequest struct {
	Text string `json:"text"`
}

// SummarizeResponse 要約APIレスポンス
type SummarizeResponse struct {
	Success bool   `json:"success"`
	// 空の要約も正常な応答なのでキーは常に出力する
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// HandleSummarize テキスト要約ハンドラー
func (h *APIHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := h.summarizeUseCase.Summarize(ctx, req.Text)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyInput) {
			h.sendError(w, "text is required", http.StatusBadRequest)
			return
		}
		// 詳細はログのみに残し、利用者には固定メッセージを返す
		h.logger.ErrorContext(ctx, "Summarization failed", "error", err)
		h.sendError(w, domain.FailureMessage, http.StatusBadGateway)
		return
	}

	cacheStatus := "MISS"
	if result.CacheHit {
		cacheStatus = "HIT"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SummarizeResponse{
		Success: true,
		Summary: result.Summary,
	})
}

// sendError エラーレスポンスを送信
func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(SummarizeResponse{
		Success: false,
		Error:   message,
	})
}
