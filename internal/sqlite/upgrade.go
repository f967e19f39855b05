package sqlite

import (
	"database/sql"
	"fmt"
)

// Upgrader moves an existing schema from oldVersion to newVersion.
// The backend stamps newVersion after Upgrade returns nil.
type Upgrader interface {
	Upgrade(db *sql.DB, oldVersion, newVersion int) error
}

// UpgraderFunc adapts a function to the Upgrader interface.
type UpgraderFunc func(db *sql.DB, oldVersion, newVersion int) error

// Upgrade calls f.
func (f UpgraderFunc) Upgrade(db *sql.DB, oldVersion, newVersion int) error {
	return f(db, oldVersion, newVersion)
}

// WipeUpgrader treats the database as a rebuildable cache: every upgrade drops
// all tables and recreates them empty. It is the backend default.
type WipeUpgrader struct{}

// Upgrade drops and recreates the schema in one transaction. Versions are
// ignored.
func (WipeUpgrader) Upgrade(db *sql.DB, _, _ int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := dropTables(tx); err != nil {
		return err
	}
	if err := createTables(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wipe: %w", err)
	}
	return nil
}
