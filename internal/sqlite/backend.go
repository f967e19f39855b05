package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/purchase/pkg/types"
)

// Compile-time interface check: Backend must implement Database.
var _ types.Database = (*Backend)(nil)

// State is the lifecycle state of a Backend.
type State int

// Lifecycle states. A backend moves Unopened -> SchemaChecked -> Ready, passing
// through Upgrading when the stored version is older than the configured one.
const (
	StateUnopened State = iota
	StateSchemaChecked
	StateUpgrading
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateSchemaChecked:
		return "schema_checked"
	case StateUpgrading:
		return "upgrading"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend owns one SQLite database file and its schema version.
// Construct it with NewBackend, then Open; Close releases the file.
type Backend struct {
	mu      sync.RWMutex
	state   State
	config  types.Config
	path    string
	db      *sql.DB
	session string

	upgrader Upgrader
	onOpen   func(*sql.DB) error
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithUpgrader replaces the default WipeUpgrader.
func WithUpgrader(u Upgrader) Option {
	return func(b *Backend) { b.upgrader = u }
}

// WithOnOpen registers a hook that runs after the schema is ready and before
// Open returns. A hook error fails Open.
func WithOnOpen(fn func(*sql.DB) error) Option {
	return func(b *Backend) { b.onOpen = fn }
}

// WithLogger sets the logger for lifecycle events. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

// NewBackend creates a backend instance. The backend is not open; call Open
// with a Config to create or upgrade the schema.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		upgrader: WipeUpgrader{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state.
func (b *Backend) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Path returns the database file path, or types.InMemory.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Open opens the database described by config and guarantees the schema is
// present at config.Version. A version-0 database gets the full schema; an
// older version is passed to the upgrader; a newer one fails with
// ErrDowngrade. On any failure the file is closed and the backend returns to
// StateUnopened.
func (b *Backend) Open(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateReady {
		return types.ErrAlreadyOpen
	}
	if err := config.Validate(); err != nil {
		return err
	}
	config = config.WithDefaults()

	path, err := databasePath(config)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dsn(path, config.ForeignKeys))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: the pragmas, the in-memory database and user_version
	// all belong to a single connection.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("open %s: %w", path, err)
	}

	session := newSessionID()
	log := b.logger.With("session", session, "path", path)

	b.state = StateSchemaChecked
	if err := b.ensureSchema(db, config.Version, log); err != nil {
		db.Close()
		b.state = StateUnopened
		return err
	}

	if b.onOpen != nil {
		if err := b.onOpen(db); err != nil {
			db.Close()
			b.state = StateUnopened
			return fmt.Errorf("open hook: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.path = path
	b.session = session
	b.state = StateReady
	log.Debug("database open", "version", config.Version, "foreign_keys", config.ForeignKeys)
	return nil
}

// ensureSchema compares the stored version with want and creates or upgrades.
func (b *Backend) ensureSchema(db *sql.DB, want int, log *slog.Logger) error {
	stored, err := readVersion(db)
	if err != nil {
		return err
	}

	switch {
	case stored == want:
		return nil
	case stored == 0:
		log.Info("creating schema", "version", want)
		return createSchema(db, want)
	case stored < want:
		b.state = StateUpgrading
		log.Info("upgrading schema", "old_version", stored, "new_version", want)
		if err := b.upgrader.Upgrade(db, stored, want); err != nil {
			return fmt.Errorf("upgrade %d to %d: %w", stored, want, err)
		}
		return writeVersion(db, want)
	default:
		return fmt.Errorf("%w: stored %d, requested %d", types.ErrDowngrade, stored, want)
	}
}

// createSchema creates every table and stamps version in one transaction, so
// a malformed statement leaves no partial schema behind.
func createSchema(db *sql.DB, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := createTables(tx); err != nil {
		return err
	}
	if err := writeVersion(tx, version); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// Close releases the database file. After Close, row operations return
// ErrClosed. Close is idempotent and the backend may be opened again.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateReady {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.state = StateClosed
	b.logger.Debug("database closed", "session", b.session, "path", b.path)
	if err != nil {
		return fmt.Errorf("close %s: %w", b.path, err)
	}
	return nil
}

// DB returns the underlying handle for statements the backend does not wrap.
// The caller must not close it.
func (b *Backend) DB() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, types.ErrClosed
	}
	return b.db, nil
}

// Version returns the schema version stored in the open database.
func (b *Backend) Version() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return 0, types.ErrClosed
	}
	return readVersion(b.db)
}

// databasePath resolves the absolute file path and creates DataDir if needed.
func databasePath(config types.Config) (string, error) {
	if config.Name == types.InMemory {
		return types.InMemory, nil
	}
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return filepath.Join(dataDir, config.Name), nil
}

// dsn builds the modernc.org/sqlite data source name. The _pragma parameter
// is applied to every connection the pool opens.
//
// File paths are passed as an escaped file: URI so that '?', '#' and '%' in
// a directory or file name stay part of the path and cannot add parameters.
func dsn(path string, foreignKeys bool) string {
	fk := 0
	if foreignKeys {
		fk = 1
	}
	query := fmt.Sprintf("_pragma=foreign_keys(%d)", fk)
	if path == types.InMemory {
		return path + "?" + query
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows volume, file:///C:/...
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: query}
	return u.String()
}

// newSessionID generates a UUID v7 that tags every log line of one Open.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
