// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; each model converts with ToDomain / FromDomain.
//
//   - base.go: BaseModel and AggregateModel
//   - catalog.go: products and variants
//   - inventory.go: stock reservations and the movement audit trail
//   - trade.go: orders, order items and return requests
//   - json.go: JSON column types
package models
