package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCardDecode is returned when a persisted card cannot be decoded.
var ErrCardDecode = errors.New("card cannot be decoded")

// ReviewLogEntry records one rating together with the whole days that had
// elapsed since the previous review.
type ReviewLogEntry struct {
	Rating      Rating `json:"rating"`
	ElapsedDays int    `json:"elapsed_days"`
}

// Card is the scheduling state attached to an Item. Apart from Log, its
// fields are only ever produced by the scheduling algorithm; the rest of the
// application treats them as read-only.
type Card struct {
	State         State            `json:"state"`
	Stability     float64          `json:"stability"`
	Difficulty    float64          `json:"difficulty"`
	ElapsedDays   int              `json:"elapsed_days"`
	ScheduledDays int              `json:"scheduled_days"`
	Reps          int              `json:"reps"`
	Lapses        int              `json:"lapses"`
	Due           time.Time        `json:"due"`
	LastReview    *time.Time       `json:"last_review,omitempty"`
	PreviousState *State           `json:"previous_state,omitempty"`
	Log           []ReviewLogEntry `json:"log"`
}

// NewCard returns the initial scheduling state of a freshly created Item:
// state New, no reps or lapses, an empty log and due immediately at now.
func NewCard(now time.Time) Card {
	return Card{
		State: StateNew,
		Due:   now.UTC(),
		Log:   []ReviewLogEntry{},
	}
}

// Reviewed reports whether the card has been rated at least once.
func (c Card) Reviewed() bool {
	return c.LastReview != nil
}

// Clone returns a deep copy of the card so the caller can never alias the
// log or pointer fields of the original.
func (c Card) Clone() Card {
	out := c
	if c.LastReview != nil {
		v := *c.LastReview
		out.LastReview = &v
	}
	if c.PreviousState != nil {
		v := *c.PreviousState
		out.PreviousState = &v
	}
	if c.Log != nil {
		out.Log = make([]ReviewLogEntry, len(c.Log))
		copy(out.Log, c.Log)
	}
	return out
}

// MarshalCard encodes a card in its persisted JSON form.
func MarshalCard(c Card) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return data, nil
}

// UnmarshalCard decodes a persisted card. Corrupt input yields an error
// wrapping ErrCardDecode rather than a partially populated card.
func UnmarshalCard(data []byte) (Card, error) {
	var c Card
	if err := json.Unmarshal(data, &c); err != nil {
		return Card{}, fmt.Errorf("%w: %v", ErrCardDecode, err)
	}
	if c.Log == nil {
		c.Log = []ReviewLogEntry{}
	}
	return c, nil
}
