// Package models contains the GORM persistence models behind the construction
// repositories. Domain types carry no GORM tags; each model converts to and
// from its domain counterpart with ToDomain and a FromDomain constructor.
//
// Files:
//   - base.go: embedded identity, version and tenant columns
//   - construction.go: contracts, estimation lines, deliveries, board members,
//     batches, batch lines, notes and the read-only procurement tables
//   - outbox.go: transactional outbox rows
package models
