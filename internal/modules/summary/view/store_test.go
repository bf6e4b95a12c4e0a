package view

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gaugeRecorder struct {
	sessions int
}

func (g *gaugeRecorder) RecordSummarize(string, time.Duration) {}
func (g *gaugeRecorder) RecordCache(bool)                      {}
func (g *gaugeRecorder) SetActiveSessions(n int)               { g.sessions = n }

func TestStore_GetOrCreate(t *testing.T) {
	rec := &gaugeRecorder{}
	st := NewStore(newBlockingSummarizer(), StoreConfig{Metrics: rec})
	defer st.Close()

	s, created := st.GetOrCreate("")
	require.True(t, created)
	_, err := uuid.Parse(s.ID())
	assert.NoError(t, err, "session id must be a UUID")

	again, created := st.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := st.GetOrCreate("unknown-id")
	assert.True(t, created)
	assert.NotEqual(t, "unknown-id", other.ID(), "client supplied ids are never adopted")

	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 2, rec.sessions)
}

func TestStore_Remove(t *testing.T) {
	b := newBlockingSummarizer()
	st := NewStore(b, StoreConfig{})
	defer st.Close()

	s, _ := st.GetOrCreate("")
	s.SetInput("text")
	require.NoError(t, s.Submit(context.Background()))
	waitStarted(t, b)

	st.Remove(s.ID())

	_, ok := st.Get(s.ID())
	assert.False(t, ok)
	assert.ErrorIs(t, b.ctx(0).Err(), context.Canceled, "removed session must abort its request")

	b.results <- summarizeResult{summary: "late"}
	s.Wait()
}

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	st := NewStore(newBlockingSummarizer(), StoreConfig{
		IdleTimeout: 10 * time.Minute,
		Now:         clock,
	})
	defer st.Close()

	stale, _ := st.GetOrCreate("")
	now = now.Add(8 * time.Minute)
	fresh, _ := st.GetOrCreate("")

	now = now.Add(5 * time.Minute)
	removed := st.Sweep()

	assert.Equal(t, 1, removed)
	_, ok := st.Get(stale.ID())
	assert.False(t, ok, "idle session must be swept")
	_, ok = st.Get(fresh.ID())
	assert.True(t, ok, "active session must be kept")
}

func TestStore_SweepKeepsTouchedSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(newBlockingSummarizer(), StoreConfig{
		IdleTimeout: 10 * time.Minute,
		Now:         func() time.Time { return now },
	})
	defer st.Close()

	s, _ := st.GetOrCreate("")
	now = now.Add(9 * time.Minute)
	s.SetInput("still typing")
	now = now.Add(9 * time.Minute)

	assert.Zero(t, st.Sweep())
}

func TestStore_Start(t *testing.T) {
	t.Run("正常系: 有効なスケジュール", func(t *testing.T) {
		st := NewStore(newBlockingSummarizer(), StoreConfig{SweepSchedule: "@every 1h"})
		require.NoError(t, st.Start())
		require.NoError(t, st.Start(), "second Start is a no-op")
		st.Close()
	})

	t.Run("異常系: 不正なスケジュール", func(t *testing.T) {
		st := NewStore(newBlockingSummarizer(), StoreConfig{SweepSchedule: "not a schedule"})
		assert.Error(t, st.Start())
		st.Close()
	})
}

func TestStore_CloseClosesSessions(t *testing.T) {
	st := NewStore(newBlockingSummarizer(), StoreConfig{})
	s, _ := st.GetOrCreate("")

	st.Close()

	assert.Zero(t, st.Len())
	assert.ErrorIs(t, s.Submit(context.Background()), ErrSessionClosed)
}
