package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrateUpgrader applies numbered SQL migrations instead of wiping data.
//
// Source holds files named {version}_{title}.up.sql under Dir. The source
// must contain a file for every version the database can be upgraded from,
// including the base version 1, because the migrate version table is pinned
// to the stored version before migrating. Migrations keep their own
// schema_migrations table in the database.
type MigrateUpgrader struct {
	Source fs.FS
	Dir    string // defaults to "."
	Logger *slog.Logger
}

// Upgrade pins the migrate version to oldVersion and migrates to newVersion.
// When a step fails, the steps before it stay applied and user_version is
// stamped to the last of them, so a later Open resumes from there.
func (m MigrateUpgrader) Upgrade(db *sql.DB, oldVersion, newVersion int) error {
	if m.Source == nil {
		return errors.New("migrate upgrader: nil source")
	}
	dir := m.Dir
	if dir == "" {
		dir = "."
	}

	src, err := iofs.New(m.Source, dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Not closed: closing the driver would close db, which the backend owns.
	mig.Log = &migrateLogger{logger: m.Logger}

	// user_version is authoritative unless migrate already recorded a clean
	// step beyond it.
	from := uint(oldVersion)
	if recorded, dirty, err := mig.Version(); err == nil && !dirty && recorded > from && recorded <= uint(newVersion) {
		from = recorded
	}
	if err := mig.Force(int(from)); err != nil {
		return fmt.Errorf("pin migrate version %d: %w", from, err)
	}

	if err := mig.Migrate(uint(newVersion)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		if clean, ok := m.restoreClean(mig, src, from); ok {
			if werr := writeVersion(db, int(clean)); werr != nil {
				return errors.Join(fmt.Errorf("migrate to version %d: %w", newVersion, err), werr)
			}
		}
		return fmt.Errorf("migrate to version %d: %w", newVersion, err)
	}
	return nil
}

// restoreClean clears the dirty flag left by a failed step and returns the last
// version whose migrations committed. Each step runs in its own transaction,
// so the failed step left nothing behind.
func (m MigrateUpgrader) restoreClean(mig *migrate.Migrate, src source.Driver, from uint) (uint, bool) {
	current, dirty, err := mig.Version()
	if err != nil {
		return 0, false
	}
	if !dirty {
		return current, true
	}
	clean := from
	if prev, err := src.Prev(current); err == nil && prev > from {
		clean = prev
	}
	if err := mig.Force(int(clean)); err != nil {
		return 0, false
	}
	if m.Logger != nil {
		m.Logger.Warn("migration failed", "failed_version", current, "clean_version", clean)
	}
	return clean, true
}

// migrateLogger implements migrate.Logger on top of slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (l *migrateLogger) Verbose() bool {
	return l.logger != nil && l.logger.Enabled(context.Background(), slog.LevelDebug)
}
