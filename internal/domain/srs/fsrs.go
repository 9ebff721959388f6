package srs

import (
	"fmt"
	"time"

	"github.com/phrazzld/brainace/internal/domain"

	fsrs "github.com/open-spaced-repetition/go-fsrs/v3"
)

// FSRSScheduler is the default Scheduler, backed by the FSRS algorithm.
type FSRSScheduler struct {
	engine *fsrs.FSRS
}

var _ Scheduler = (*FSRSScheduler)(nil)

// NewFSRSScheduler creates an FSRS scheduler. A nil params uses the defaults.
func NewFSRSScheduler(params *Params) (*FSRSScheduler, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	p := fsrs.DefaultParam()
	p.RequestRetention = params.RequestRetention
	p.MaximumInterval = params.MaximumInterval
	p.EnableFuzz = params.EnableFuzz
	p.EnableShortTerm = params.EnableShortTerm

	return &FSRSScheduler{engine: fsrs.NewFSRS(p)}, nil
}

// Schedule implements Scheduler. The returned card records the input state
// as its PreviousState; its log is left to the caller.
func (s *FSRSScheduler) Schedule(
	card domain.Card,
	now time.Time,
	rating domain.Rating,
) (domain.Card, error) {
	if !rating.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}
	if !card.State.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %d", domain.ErrInvalidState, int(card.State))
	}

	records := s.engine.Repeat(toFSRSCard(card), now)
	info, ok := records[fsrs.Rating(rating)]
	if !ok {
		return domain.Card{}, fmt.Errorf("no schedule produced for rating %s", rating)
	}

	next := fromFSRSCard(info.Card)
	prev := card.State
	next.PreviousState = &prev
	return next, nil
}

func toFSRSCard(c domain.Card) fsrs.Card {
	out := fsrs.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(nonNegative(c.ElapsedDays)),
		ScheduledDays: uint64(nonNegative(c.ScheduledDays)),
		Reps:          uint64(nonNegative(c.Reps)),
		Lapses:        uint64(nonNegative(c.Lapses)),
		State:         fsrs.State(c.State),
	}
	if c.LastReview != nil {
		out.LastReview = *c.LastReview
	}
	return out
}

func fromFSRSCard(c fsrs.Card) domain.Card {
	out := domain.Card{
		State:         domain.State(c.State),
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   int(c.ElapsedDays),
		ScheduledDays: int(c.ScheduledDays),
		Reps:          int(c.Reps),
		Lapses:        int(c.Lapses),
		Due:           c.Due.UTC(),
	}
	if !c.LastReview.IsZero() {
		last := c.LastReview.UTC()
		out.LastReview = &last
	}
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
