// Package postgres provides PostgreSQL implementations of the storage
// interfaces defined in internal/store, together with the embedded schema
// migrations they depend on.
//
// Sibling order is kept in a position column. Cascading deletes are
// enforced by ON DELETE CASCADE foreign keys, so deleting a section or
// sub-section is a single statement.
package postgres
