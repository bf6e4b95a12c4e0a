package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"text-summarizer-app/internal/config"
	"text-summarizer-app/internal/modules/summary/domain"
)

const (
	// maxResponseBytes レスポンスボディの読み取り上限
	maxResponseBytes = 1 << 20
	// maxErrorBodyBytes ログ用に保持するエラーボディの上限
	maxErrorBodyBytes = 512
)

// EndpointRepository 外部要約エンドポイントのリポジトリ実装
type EndpointRepository struct {
	endpoint   string
	httpClient *http.Client
}

// summarizeRequest リクエストボディ
type summarizeRequest struct {
	Text string `json:"text"`
}

// summarizeResponse レスポンスボディ（data.candidates[0].content.parts[0].text）
type summarizeResponse struct {
	Data *struct {
		Candidates []struct {
			Content *struct {
				Parts []struct {
					Text *string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	} `json:"data"`
}

// NewEndpointRepository 新しいEndpointRepositoryを作成
func NewEndpointRepository(cfg *config.SummarizerConfig) *EndpointRepository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EndpointRepository{
		endpoint:   cfg.EndpointURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient テスト用にHTTPクライアントを設定（テストコードからのみ使用）
func (r *EndpointRepository) SetHTTPClient(client *http.Client) {
	r.httpClient = client
}

// Summarize テキストをエンドポイントへ送信して要約を取得
func (r *EndpointRepository) Summarize(ctx context.Context, text string) (string, error) {
	jsonData, err := json.Marshal(summarizeRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", &domain.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &domain.TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return decodeSummary(io.LimitReader(resp.Body, maxResponseBytes))
}

// decodeSummary レスポンスから要約テキストを取り出す
func decodeSummary(body io.Reader) (string, error) {
	var response summarizeResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return "", &domain.MalformedResponseError{Reason: "failed to decode response", Err: err}
	}

	switch {
	case response.Data == nil:
		return "", &domain.MalformedResponseError{Reason: "missing data"}
	case len(response.Data.Candidates) == 0:
		return "", &domain.MalformedResponseError{Reason: "missing data.candidates[0]"}
	case response.Data.Candidates[0].Content == nil:
		return "", &domain.MalformedResponseError{Reason: "missing data.candidates[0].content"}
	case len(response.Data.Candidates[0].Content.Parts) == 0:
		return "", &domain.MalformedResponseError{Reason: "missing data.candidates[0].content.parts[0]"}
	case response.Data.Candidates[0].Content.Parts[0].Text == nil:
		return "", &domain.MalformedResponseError{Reason: "missing data.candidates[0].content.parts[0].text"}
	}

	return *response.Data.Candidates[0].Content.Parts[0].Text, nil
}

// ProviderName プロバイダー名を返す
func (r *EndpointRepository) ProviderName() string {
	return "Summarization Endpoint"
}
