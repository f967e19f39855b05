// Package sqlite provides the public API for the SQLite purchase backend.
// This package exposes the factory function for creating backends while
// keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/purchase/internal/sqlite"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not open; call Open with a Config to create the schema.
//
// Example:
//
//	db := sqlite.NewBackend()
//	err := db.Open(types.Config{DataDir: ".purchase-db"})
//	defer db.Close()
func NewBackend() types.Database {
	return sqlite.NewBackend()
}
