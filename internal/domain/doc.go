// Package domain contains the core study entities: the four-level content
// hierarchy (Collection, Section, SubSection, Item) and the Card scheduling
// state each Item owns. It is independent of storage and delivery details.
package domain
