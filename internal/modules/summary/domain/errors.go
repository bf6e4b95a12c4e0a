package domain

import (
	"errors"
	"fmt"
)

// FailureMessage 要約失敗時にユーザーへ表示する固定メッセージ
const FailureMessage = "Error generating summary. Please try again later."

var (
	// ErrEmptyInput 空白を除いた入力が空
	ErrEmptyInput = errors.New("input text is empty")

	// ErrCacheMiss キャッシュに値が無い
	ErrCacheMiss = errors.New("cache miss")
)

// TransportError 通信失敗または成功以外のHTTPステータス
type TransportError struct {
	StatusCode int // 通信自体が失敗した場合は0
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("summarization endpoint returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("summarization request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError JSONの解析失敗または期待するフィールドの欠落
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed summarization response: %s: %v", e.Reason, e.Err)
	}
	return "malformed summarization response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsTransportError errがTransportErrorを含むか
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformedResponse errがMalformedResponseErrorを含むか
func IsMalformedResponse(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
