package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds a pessimistic row lock on dialects that support it. SQLite
// (used by package tests) serializes writers on its own and rejects the
// clause.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
