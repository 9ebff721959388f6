// Package srs connects Cards to the spaced-repetition scheduling algorithm.
// The algorithm itself sits behind the Scheduler interface; Service adds the
// review-log bookkeeping the rest of the application relies on.
package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/brainace/internal/domain"
)

// ErrSchedulerFailed wraps any error returned by the scheduling algorithm.
// The algorithm is assumed total, so such an error is never retried.
var ErrSchedulerFailed = errors.New("scheduling algorithm failed")

// Scheduler is the external spaced-repetition algorithm: a pure function from
// the current card, the review instant and the rating to the next card.
type Scheduler interface {
	Schedule(card domain.Card, now time.Time, rating domain.Rating) (domain.Card, error)
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(card domain.Card, now time.Time, rating domain.Rating) (domain.Card, error)

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(card domain.Card, now time.Time, rating domain.Rating) (domain.Card, error) {
	return f(card, now, rating)
}

// Service defines the interface for reviewing a card
type Service interface {
	// Review computes the card that results from rating card at now.
	//
	// The scheduler's output is returned as is, except that when card had
	// been reviewed before, one log entry recording the rating and the whole
	// days since the previous review is appended to the input card's log.
	// The first review only establishes the baseline and adds no entry.
	Review(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	scheduler Scheduler
}

// NewDefaultService creates a new review service backed by FSRS with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new review service backed by FSRS with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	scheduler, err := NewFSRSScheduler(params)
	if err != nil {
		return nil, err
	}
	return NewService(scheduler), nil
}

// NewService creates a review service around an arbitrary scheduler.
func NewService(scheduler Scheduler) Service {
	if scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil")
	}
	return &defaultService{scheduler: scheduler}
}

// Review implements Service.Review
func (s *defaultService) Review(
	card domain.Card,
	rating domain.Rating,
	now time.Time,
) (domain.Card, error) {
	if !rating.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	next, err := s.scheduler.Schedule(card.Clone(), now, rating)
	if err != nil {
		return domain.Card{}, fmt.Errorf("%w: %v", ErrSchedulerFailed, err)
	}
	next = next.Clone()

	// The log belongs to the card, not to the algorithm, so it is always
	// rebuilt from the input history.
	log := make([]domain.ReviewLogEntry, len(card.Log), len(card.Log)+1)
	copy(log, card.Log)
	if card.LastReview != nil {
		log = append(log, domain.ReviewLogEntry{
			Rating:      rating,
			ElapsedDays: ElapsedDays(*card.LastReview, now),
		})
	}
	next.Log = log

	return next, nil
}

// ElapsedDays returns the whole days between since and now, never negative.
func ElapsedDays(since, now time.Time) int {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
