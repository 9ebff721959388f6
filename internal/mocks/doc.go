// Package mocks provides centralized mock implementations for testing.
//
// Garden is an in-memory implementation of the four hierarchy stores. The
// stores it hands out share one data set, so a section deleted through
// Sections() takes its items with it exactly as the PostgreSQL stores do.
// Every method can be overridden with a function field:
//
//	garden := mocks.NewGarden()
//	items := garden.Items()
//	items.UpdateCardFn = func(ctx context.Context, id uuid.UUID, card domain.Card, v int64) (int64, error) {
//	    return 0, store.ErrConflict
//	}
//
// MockScheduler records the cards it is asked to schedule and returns a
// canned or computed result.
package mocks
