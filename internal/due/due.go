// Package due selects the items that are ready for review. Every function
// preserves the input order and never modifies the items it is given.
package due

import (
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/brainace/internal/domain"
)

// DueToday returns the items whose due date falls on or before the calendar
// day of today. Days are taken in today's location, so a card due late this
// evening is included in the morning.
func DueToday(items []domain.Item, today time.Time) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if isDueToday(it.Card, today) {
			out = append(out, it)
		}
	}
	return out
}

// DueNow returns the items whose due instant is at or before now.
func DueNow(items []domain.Item, now time.Time) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if isDueNow(it.Card, now) {
			out = append(out, it)
		}
	}
	return out
}

// CountDueToday is len(DueToday(items, today)) without the allocation.
func CountDueToday(items []domain.Item, today time.Time) int {
	n := 0
	for _, it := range items {
		if isDueToday(it.Card, today) {
			n++
		}
	}
	return n
}

// CountDueNow is len(DueNow(items, now)) without the allocation.
func CountDueNow(items []domain.Item, now time.Time) int {
	n := 0
	for _, it := range items {
		if isDueNow(it.Card, now) {
			n++
		}
	}
	return n
}

func isDueNow(c domain.Card, now time.Time) bool {
	return !c.Due.After(now)
}

func isDueToday(c domain.Card, today time.Time) bool {
	loc := today.Location()
	dy, dm, dd := c.Due.In(loc).Date()
	ty, tm, td := today.Date()
	if dy != ty {
		return dy < ty
	}
	if dm != tm {
		return dm < tm
	}
	return dd <= td
}

// StateCounts is the number of items in each card state.
type StateCounts struct {
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Relearning int `json:"relearning"`
}

// Total returns the sum of all four counts.
func (c StateCounts) Total() int {
	return c.New + c.Learning + c.Review + c.Relearning
}

// CountByState tallies items by card state in a single pass. Every item lands
// in exactly one bucket, so the counts always sum to len(items).
func CountByState(items []domain.Item) StateCounts {
	var c StateCounts
	for _, it := range items {
		switch it.Card.State {
		case domain.StateNew:
			c.New++
		case domain.StateLearning:
			c.Learning++
		case domain.StateReview:
			c.Review++
		case domain.StateRelearning:
			c.Relearning++
		default:
			// Stored cards with an unknown state fail to decode; one built in
			// memory counts as new.
			c.New++
		}
	}
	return c
}

// Filter names the rule used to pick the items of a review session.
type Filter string

const (
	// FilterToday selects items due by the end of the current day.
	FilterToday Filter = "today"
	// FilterNow selects items due at this instant.
	FilterNow Filter = "now"
	// FilterAll selects every item regardless of due date.
	FilterAll Filter = "all"
)

// ParseFilter converts a name to a Filter, case-insensitively.
func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: unknown due filter %q", domain.ErrValidation, name)
	}
	return f, nil
}

// IsValid reports whether f is one of the known filters.
func (f Filter) IsValid() bool {
	switch f {
	case FilterToday, FilterNow, FilterAll:
		return true
	}
	return false
}

// Apply runs the filter over items as of now. An unknown filter selects
// nothing.
func (f Filter) Apply(items []domain.Item, now time.Time) []domain.Item {
	switch f {
	case FilterToday:
		return DueToday(items, now)
	case FilterNow:
		return DueNow(items, now)
	case FilterAll:
		out := make([]domain.Item, len(items))
		copy(out, items)
		return out
	}
	return []domain.Item{}
}
