// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// Every method maps to one storage request. Deleting a Section or
// SubSection removes everything beneath it; implementations must honor
// that cascade.
package store
