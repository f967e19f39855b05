package types

import "errors"

// InvalidRowID is the row id returned alongside an error when an insert fails.
const InvalidRowID int64 = -1

// Values maps column names to column values for a single row.
type Values map[string]any

// Database is the handle callers use to reach the purchase tables.
// The caller must Open before any row operation and Close when done.
type Database interface {
	// Open creates or upgrades the schema described by config and makes the
	// handle ready. Returns ErrAlreadyOpen if the handle is already open.
	Open(config Config) error

	// Close releases the database file. Idempotent.
	Close() error

	// Insert adds a row and returns its engine-assigned id. On failure it
	// returns InvalidRowID and an error.
	Insert(table string, values Values) (int64, error)

	// Query returns every row of table whose columns equal all filter
	// values. An empty filter returns every row.
	Query(table string, filter Values) ([]Values, error)

	// Delete removes the row with the given id.
	// Returns ErrNotFound if no row has that id.
	Delete(table string, id int64) error
}

// Lifecycle errors.
var (
	ErrClosed      = errors.New("database is not open")
	ErrAlreadyOpen = errors.New("database is already open")
	ErrDowngrade   = errors.New("cannot downgrade database schema")
)

// Row operation errors.
var (
	ErrTableNotFound = errors.New("table not found")
	ErrUnknownColumn = errors.New("unknown column")
	ErrInsertFailed  = errors.New("insert failed")
	ErrNotFound      = errors.New("row not found")
	ErrInvalidID     = errors.New("invalid row id")
	ErrInvalidData   = errors.New("invalid row data")
)

// Entity validation errors.
var (
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidPrice = errors.New("invalid price")
)
