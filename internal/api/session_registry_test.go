package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
	"github.com/phrazzld/brainace/internal/mocks"
	"github.com/phrazzld/brainace/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardWriterFunc func(ctx context.Context, item domain.Item, card domain.Card) (domain.Item, error)

func (f cardWriterFunc) SaveCard(ctx context.Context, item domain.Item, card domain.Card) (domain.Item, error) {
	return f(ctx, item, card)
}

// newEngine starts a session over n fresh items.
func newEngine(t *testing.T, n int) *session.Engine {
	t.Helper()
	items := make([]domain.Item, n)
	for i := range items {
		it, err := domain.NewItem(uuid.New(), "front", "back", testNow)
		require.NoError(t, err)
		items[i] = *it
	}
	e, err := session.NewEngine(context.Background(), session.Dependencies{
		Source: session.ItemSourceFunc(func(context.Context) ([]domain.Item, error) {
			return items, nil
		}),
		Reviewer: srs.NewService(&mocks.MockScheduler{}),
		Writer: cardWriterFunc(func(_ context.Context, item domain.Item, card domain.Card) (domain.Item, error) {
			item.Card = card
			return item, nil
		}),
		Clock:  testClock,
		Logger: discardLogger,
	})
	require.NoError(t, err)
	return e
}

func TestSessionRegistry_AddDoRemove(t *testing.T) {
	t.Parallel()
	reg := NewSessionRegistry(2, testClock)
	e := newEngine(t, 1)
	require.NoError(t, reg.Add(e))
	assert.Equal(t, 1, reg.Len())

	var seen *session.Engine
	require.NoError(t, reg.Do(e.ID(), func(got *session.Engine) error {
		seen = got
		return nil
	}))
	assert.Same(t, e, seen)

	boom := errors.New("boom")
	assert.ErrorIs(t, reg.Do(e.ID(), func(*session.Engine) error { return boom }), boom)

	assert.True(t, reg.Remove(e.ID()))
	assert.False(t, reg.Remove(e.ID()))
	assert.ErrorIs(t, reg.Do(e.ID(), func(*session.Engine) error { return nil }), ErrSessionNotFound)
}

func TestSessionRegistry_FullEvictsCompletedFirst(t *testing.T) {
	t.Parallel()
	reg := NewSessionRegistry(2, testClock)
	done := newEngine(t, 0)
	busy := newEngine(t, 2)
	require.Equal(t, session.PhaseCompleted, done.Phase())
	require.NoError(t, reg.Add(done))
	require.NoError(t, reg.Add(busy))

	fresh := newEngine(t, 1)
	require.NoError(t, reg.Add(fresh))
	assert.Equal(t, 2, reg.Len())
	assert.ErrorIs(t, reg.Do(done.ID(), func(*session.Engine) error { return nil }), ErrSessionNotFound)

	assert.ErrorIs(t, reg.Add(newEngine(t, 1)), ErrTooManySessions)
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	t.Parallel()
	now := testNow
	clock := domain.ClockFunc(func() time.Time { return now })
	reg := NewSessionRegistry(10, clock)

	stale := newEngine(t, 1)
	require.NoError(t, reg.Add(stale))
	now = now.Add(20 * time.Minute)
	active := newEngine(t, 1)
	require.NoError(t, reg.Add(active))

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, reg.EvictIdle(30*time.Minute))
	assert.Equal(t, 1, reg.Len())
	assert.NoError(t, reg.Do(active.ID(), func(*session.Engine) error { return nil }))
}

func TestNewSessionRegistry_PanicsOnBadSize(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewSessionRegistry(0, nil) })
}
