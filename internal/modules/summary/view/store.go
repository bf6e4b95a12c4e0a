package view

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"text-summarizer-app/internal/modules/shared/infrastructure/metrics"
)

// StoreConfig Storeの設定
type StoreConfig struct {
	IdleTimeout   time.Duration
	SweepSchedule string
	SessionOpts   []SessionOption
	Metrics       metrics.Recorder
	Logger        *slog.Logger
	Now           func() time.Time
}

// Store 画面セッションの保持と期限切れの掃除
type Store struct {
	summarizer    Summarizer
	idleTimeout   time.Duration
	sweepSchedule string
	sessionOpts   []SessionOption
	metrics       metrics.Recorder
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	cron     *cron.Cron
}

// NewStore 新しいStoreを作成
func NewStore(summarizer Summarizer, cfg StoreConfig) *Store {
	st := &Store{
		summarizer:    summarizer,
		idleTimeout:   cfg.IdleTimeout,
		sweepSchedule: cfg.SweepSchedule,
		sessionOpts:   cfg.SessionOpts,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           cfg.Now,
		sessions:      make(map[string]*Session),
	}
	if st.idleTimeout <= 0 {
		st.idleTimeout = 30 * time.Minute
	}
	if st.sweepSchedule == "" {
		st.sweepSchedule = "@every 1m"
	}
	if st.metrics == nil {
		st.metrics = metrics.NoopRecorder{}
	}
	if st.logger == nil {
		st.logger = slog.Default()
	}
	if st.now == nil {
		st.now = time.Now
	}
	return st
}

// Get IDに対応するセッションを取得
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	return s, ok
}

// GetOrCreate IDに対応するセッションを取得し、無ければ新しいIDで作成
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if s, ok := st.sessions[id]; ok {
		return s, false
	}

	newID := uuid.NewString()
	opts := append([]SessionOption{WithLogger(st.logger), WithClock(st.now)}, st.sessionOpts...)
	s := NewSession(newID, st.summarizer, opts...)
	st.sessions[newID] = s
	st.metrics.SetActiveSessions(len(st.sessions))

	return s, true
}

// Remove セッションを破棄して削除
func (st *Store) Remove(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
		st.metrics.SetActiveSessions(len(st.sessions))
	}
	st.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Len 保持中のセッション数
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.sessions)
}

// Sweep 一定時間操作の無いセッションを破棄し、破棄した数を返す
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.idleTimeout)

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.metrics.SetActiveSessions(len(st.sessions))
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		st.logger.Info("Expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Start 定期的な掃除を開始
func (st *Store) Start() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.cron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(st.sweepSchedule, func() { st.Sweep() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", st.sweepSchedule, err)
	}
	c.Start()
	st.cron = c
	return nil
}

// Close 掃除を止め、全セッションを破棄して実行中の処理を待つ
func (st *Store) Close() {
	st.mu.Lock()
	c := st.cron
	st.cron = nil
	sessions := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		sessions = append(sessions, s)
	}
	st.sessions = make(map[string]*Session)
	st.metrics.SetActiveSessions(0)
	st.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	for _, s := range sessions {
		s.Close()
	}
	for _, s := range sessions {
		s.Wait()
	}
}
