package mocks

import (
	"sync"
	"time"

	"github.com/phrazzld/brainace/internal/domain"
	"github.com/phrazzld/brainace/internal/domain/srs"
)

// MockScheduler implements srs.Scheduler for testing.
//
// With no ScheduleFn it moves the card to Review, bumps Reps, stamps
// LastReview and makes the card due one day per rating point after now.
type MockScheduler struct {
	ScheduleFn func(card domain.Card, now time.Time, rating domain.Rating) (domain.Card, error)

	mu      sync.Mutex
	Ratings []domain.Rating
}

var _ srs.Scheduler = (*MockScheduler)(nil)

// Schedule implements the srs.Scheduler interface
func (m *MockScheduler) Schedule(card domain.Card, now time.Time, rating domain.Rating) (domain.Card, error) {
	m.mu.Lock()
	m.Ratings = append(m.Ratings, rating)
	m.mu.Unlock()

	if m.ScheduleFn != nil {
		return m.ScheduleFn(card, now, rating)
	}

	prev := card.State
	card.PreviousState = &prev
	card.State = domain.StateReview
	card.Reps++
	card.ScheduledDays = int(rating)
	card.Due = now.Add(time.Duration(rating) * 24 * time.Hour)
	last := now
	card.LastReview = &last
	return card, nil
}

// Calls returns how many times Schedule has been invoked.
func (m *MockScheduler) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Ratings)
}
