// Package sqlite implements the SQLite storage backend for the purchase tables:
// schema creation, version upgrades, and row access.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/purchase/pkg/contract"
)

// Schema DDL for all tables.
const (
	createCustomer = `CREATE TABLE ` + contract.TableCustomer + ` (` +
		contract.ColumnID + ` INTEGER PRIMARY KEY,` +
		contract.CustomerName + ` TEXT NOT NULL` +
		`);`

	createProduct = `CREATE TABLE ` + contract.TableProduct + ` (` +
		contract.ColumnID + ` INTEGER PRIMARY KEY,` +
		contract.ProductName + ` TEXT NOT NULL,` +
		contract.ProductPrice + ` REAL NOT NULL` +
		`);`

	createRelation = `CREATE TABLE ` + contract.TableRelation + ` (` +
		contract.ColumnID + ` INTEGER PRIMARY KEY AUTOINCREMENT,` +
		contract.RelationCustomerKey + ` INTEGER NOT NULL,` +
		contract.RelationProductKey + ` INTEGER NOT NULL,` +
		` FOREIGN KEY (` + contract.RelationCustomerKey + `) REFERENCES ` +
		contract.TableCustomer + ` (` + contract.ColumnID + `),` +
		` FOREIGN KEY (` + contract.RelationProductKey + `) REFERENCES ` +
		contract.TableProduct + ` (` + contract.ColumnID + `)` +
		`);`
)

// columnKind is the storage class a column accepts on insert.
type columnKind int

const (
	kindInteger columnKind = iota
	kindReal
	kindText
)

func (k columnKind) String() string {
	switch k {
	case kindInteger:
		return "INTEGER"
	case kindReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

// columnKinds mirrors the declared column types of the DDL above.
var columnKinds = map[string]map[string]columnKind{
	contract.TableCustomer: {
		contract.ColumnID:     kindInteger,
		contract.CustomerName: kindText,
	},
	contract.TableProduct: {
		contract.ColumnID:     kindInteger,
		contract.ProductName:  kindText,
		contract.ProductPrice: kindReal,
	},
	contract.TableRelation: {
		contract.ColumnID:            kindInteger,
		contract.RelationCustomerKey: kindInteger,
		contract.RelationProductKey:  kindInteger,
	},
}

// accepts reports whether v can be stored in a column of kind k without
// falling back to another storage class. nil is left to NOT NULL.
func (k columnKind) accepts(v any) bool {
	switch v.(type) {
	case nil:
		return true
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return k == kindInteger || k == kindReal
	case float32, float64:
		return k == kindReal
	case string:
		return k == kindText
	default:
		return false
	}
}

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCustomer,
	createProduct,
	createRelation,
}

// dropDDL lists the DROP statements in reverse dependency order so that a
// wipe succeeds with foreign_keys enabled.
var dropDDL = []string{
	`DROP TABLE IF EXISTS ` + contract.TableRelation + `;`,
	`DROP TABLE IF EXISTS ` + contract.TableProduct + `;`,
	`DROP TABLE IF EXISTS ` + contract.TableCustomer + `;`,
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// createTables runs schemaDDL in order and stops at the first failure.
func createTables(ex execer) error {
	for _, stmt := range schemaDDL {
		if _, err := ex.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// dropTables runs dropDDL. Missing tables are not errors.
func dropTables(ex execer) error {
	for _, stmt := range dropDDL {
		if _, err := ex.Exec(stmt); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	return nil
}

// readVersion returns the schema version stamped in the database header.
// A new database reports 0.
func readVersion(q interface {
	QueryRow(query string, args ...any) *sql.Row
}) (int, error) {
	var v int
	if err := q.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// writeVersion stamps the schema version. PRAGMA arguments cannot be bound,
// so the integer is formatted into the statement.
func writeVersion(ex execer, version int) error {
	if _, err := ex.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}
