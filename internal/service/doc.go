// Package service contains the application-specific use cases. It
// coordinates the storage interfaces from internal/store with the in-memory
// hierarchy, the due-set queries and the review session engine.
//
// GardenService edits a collection: each mutation validates against the
// caller's Tree, issues exactly one storage request, and on success applies
// the same change to the Tree. ReviewService starts review sessions over a
// Tree whose ratings are persisted with optimistic versioning.
//
// A Tree handed to either service must not be shared between goroutines
// without external locking.
package service
