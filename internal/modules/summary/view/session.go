package view

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"text-summarizer-app/internal/modules/summary/domain"
)

// DefaultCopiedReset コピー済み表示が戻るまでの時間
const DefaultCopiedReset = 2 * time.Second

var (
	// ErrSubmitDisabled 送信不可（入力が空または送信中）
	ErrSubmitDisabled = errors.New("submit is disabled")
	// ErrNothingToCopy コピーする要約が無い
	ErrNothingToCopy = errors.New("no summary to copy")
	// ErrSessionClosed 破棄済みのセッション
	ErrSessionClosed = errors.New("session is closed")
)

// Summarizer 要約処理のインターフェース
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*domain.SummaryResult, error)
}

// Clipboard クリップボードへの書き込み
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Timer 停止可能なワンショットタイマー
type Timer interface {
	Stop() bool
}

// AfterFunc dの経過後にfを実行するタイマーを作る関数
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Snapshot 描画用の状態のコピー
type Snapshot struct {
	ID             string  `json:"id"`
	Input          string  `json:"input"`
	CharCount      int     `json:"char_count"`
	CanSubmit      bool    `json:"can_submit"`
	ShowClear      bool    `json:"show_clear"`
	Phase          string  `json:"phase"`
	Display        Display `json:"display"`
	Summary        string  `json:"summary"`
	Copied         bool    `json:"copied"`
	ShowDisclaimer bool    `json:"show_disclaimer"`
}

// IsLoading 送信中表示かどうか
func (s Snapshot) IsLoading() bool { return s.Display == DisplayLoading }

// HasSummary 要約表示かどうか
func (s Snapshot) HasSummary() bool { return s.Display == DisplayHasSummary }

// Session 1画面分の状態
type Session struct {
	id          string
	summarizer  Summarizer
	logger      *slog.Logger
	copiedReset time.Duration
	afterFunc   AfterFunc
	now         func() time.Time

	mu         sync.Mutex
	input      string
	state      State
	copied     bool
	copyTimer  Timer
	copyGen    uint64
	cancel     context.CancelFunc
	generation uint64
	closed     bool
	lastActive time.Time

	inflight sync.WaitGroup
}

// SessionOption Sessionの設定
type SessionOption func(*Session)

// WithCopiedReset コピー済み表示の持続時間を設定
func WithCopiedReset(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.copiedReset = d
		}
	}
}

// WithAfterFunc タイマー生成関数を差し替え（テスト用）
func WithAfterFunc(f AfterFunc) SessionOption {
	return func(s *Session) { s.afterFunc = f }
}

// WithClock 現在時刻の取得関数を差し替え（テスト用）
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLogger ロガーを設定
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession 新しいSessionを作成
func NewSession(id string, summarizer Summarizer, opts ...SessionOption) *Session {
	s := &Session{
		id:          id,
		summarizer:  summarizer,
		logger:      slog.Default(),
		copiedReset: DefaultCopiedReset,
		afterFunc:   realAfterFunc,
		now:         time.Now,
		state:       Idle(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastActive = s.now()
	return s
}

// ID セッションID
func (s *Session) ID() string { return s.id }

// SetInput 入力値をそのまま保存（トリムしない）
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = text
	s.touch()
}

// CharCount 入力の文字数
func (s *Session) CharCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return utf8.RuneCountInString(s.input)
}

// CanSubmit 送信可能かどうか
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canSubmit()
}

func (s *Session) canSubmit() bool {
	return !s.closed && !s.state.IsLoading() && strings.TrimSpace(s.input) != ""
}

// Submit 現在の入力で要約を開始
//
// 処理は非同期に進み、完了するとSucceededまたはFailedに遷移する。
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if !s.canSubmit() {
		return ErrSubmitDisabled
	}

	s.touch()
	s.state = Loading()
	s.generation++
	gen := s.generation
	text := s.input

	// リクエスト終了後も処理を続けるため呼び出し元のキャンセルは引き継がない
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		result, err := s.summarizer.Summarize(reqCtx, text)
		s.complete(reqCtx, gen, result, err)
	}()

	return nil
}

// complete 要約結果を反映（古い結果や破棄後の結果は捨てる）
func (s *Session) complete(ctx context.Context, gen uint64, result *domain.SummaryResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.logger.DebugContext(ctx, "Discarding stale summarization result",
			"session", s.id,
			"generation", gen,
		)
		return
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "Summarization failed",
			"session", s.id,
			"error", err,
		)
		s.state = Failed(domain.FailureMessage)
		return
	}

	summary := ""
	if result != nil {
		summary = result.Summary
	}
	s.state = Succeeded(summary)
}

// Clear 入力と要約を空に戻す（送信中なら中断する）
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.input = ""
	s.state = Idle()
	s.abortInflight()
}

func (s *Session) abortInflight() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.generation++
	}
}

// Copy 要約をクリップボードへ書き込み、コピー済み表示を一定時間有効にする
func (s *Session) Copy(ctx context.Context, cb Clipboard) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.Display() != DisplayHasSummary {
		s.mu.Unlock()
		return ErrNothingToCopy
	}
	text := s.state.Text()
	s.touch()
	s.mu.Unlock()

	if err := cb.WriteText(ctx, text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	// 書き込み中にクリアや再送信があれば表示中の要約はもう無い
	if s.state.Display() != DisplayHasSummary {
		return ErrNothingToCopy
	}

	s.copied = true
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	s.copyGen++
	gen := s.copyGen
	s.copyTimer = s.afterFunc(s.copiedReset, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// 再コピーで張り直された場合は新しいタイマーに任せる
		if s.copyGen == gen {
			s.copied = false
			s.copyTimer = nil
		}
	})

	return nil
}

// Copied コピー済み表示中かどうか
func (s *Session) Copied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.copied
}

// State 現在の状態
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Snapshot 描画用の状態を取得
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	display := s.state.Display()
	snap := Snapshot{
		ID:        s.id,
		Input:     s.input,
		CharCount: utf8.RuneCountInString(s.input),
		CanSubmit: s.canSubmit(),
		ShowClear: s.input != "",
		Phase:     s.state.Phase().String(),
		Display:   display,
		Copied:    s.copied,
	}
	if display == DisplayHasSummary {
		snap.Summary = s.state.Text()
		snap.ShowDisclaimer = true
	}
	return snap
}

// IdleSnapshot セッション未作成時の初期画面
func IdleSnapshot() Snapshot {
	return Snapshot{
		Phase:   PhaseIdle.String(),
		Display: Idle().Display(),
	}
}

// LastActive 最終操作時刻
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

func (s *Session) touch() {
	s.lastActive = s.now()
}

// Close セッションを破棄（送信中の処理を中断し、以後の結果は捨てる）
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.abortInflight()
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
	s.mu.Unlock()
}

// Wait 実行中の要約処理の終了を待つ
func (s *Session) Wait() {
	s.inflight.Wait()
}
