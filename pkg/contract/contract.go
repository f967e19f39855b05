// Package contract defines the purchase schema contract: table names, column
// names, and the resource locators that address tables and rows.
// Everything here is pure string composition; nothing touches the database.
package contract

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// Authority and base locator shared by every table.
const (
	Scheme      = "content"
	Authority   = "com.example.android.sunshine.app"
	BaseLocator = Locator(Scheme + "://" + Authority)
)

// MIME base types for collection and single-row content types.
const (
	DirBaseType  = "vnd.android.cursor.dir"
	ItemBaseType = "vnd.android.cursor.item"
)

// Path segments appended to BaseLocator.
const (
	PathCustomer = "customer"
	PathProduct  = "product"
	PathRelation = "relation"
)

// Table names.
const (
	TableCustomer = "customer"
	TableProduct  = "product"
	TableRelation = "relation"
)

// Column names. ColumnID is the row-id column present in every table.
const (
	ColumnID = "_id"

	CustomerName = "name"

	ProductName  = "name"
	ProductPrice = "price"

	RelationCustomerKey = "customer_id"
	RelationProductKey  = "product_id"
)

// ErrNotItemLocator is returned by ParseID when the locator does not end in a row id.
var ErrNotItemLocator = errors.New("locator does not address a row")

// Locator is an opaque resource locator such as
// content://com.example.android.sunshine.app/customer/7.
type Locator string

func (l Locator) String() string { return string(l) }

// Entry describes one table of the contract.
type Entry struct {
	Table   string
	Path    string
	columns []string // ordered as declared in the CREATE TABLE statement
}

// Columns returns a copy of the table's column names in declaration order.
func (e Entry) Columns() []string {
	return slices.Clone(e.columns)
}

// Locator returns the collection locator for the table.
func (e Entry) Locator() Locator {
	return BaseLocator + Locator("/"+e.Path)
}

// ItemLocator returns the locator for a single row.
func (e Entry) ItemLocator(id int64) Locator {
	return e.Locator() + Locator("/"+strconv.FormatInt(id, 10))
}

// ContentType is the MIME type of a collection of rows.
func (e Entry) ContentType() string {
	return DirBaseType + "/" + Authority + "/" + e.Path
}

// ContentItemType is the MIME type of a single row.
func (e Entry) ContentItemType() string {
	return ItemBaseType + "/" + Authority + "/" + e.Path
}

// HasColumn reports whether name is one of the table's columns.
func (e Entry) HasColumn(name string) bool {
	return slices.Contains(e.columns, name)
}

// Table entries.
var (
	Customer = Entry{
		Table:   TableCustomer,
		Path:    PathCustomer,
		columns: []string{ColumnID, CustomerName},
	}
	Product = Entry{
		Table:   TableProduct,
		Path:    PathProduct,
		columns: []string{ColumnID, ProductName, ProductPrice},
	}
	Relation = Entry{
		Table:   TableRelation,
		Path:    PathRelation,
		columns: []string{ColumnID, RelationCustomerKey, RelationProductKey},
	}
)

// Entries returns all table entries in creation order.
func Entries() []Entry {
	return []Entry{Customer, Product, Relation}
}

// Lookup returns the entry for a table name.
func Lookup(table string) (Entry, bool) {
	for _, e := range Entries() {
		if e.Table == table {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseID returns the trailing row id of an item locator.
func ParseID(l Locator) (int64, error) {
	s := string(l)
	i := strings.LastIndexByte(s, '/')
	if i < 0 || i == len(s)-1 {
		return 0, ErrNotItemLocator
	}
	id, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return 0, ErrNotItemLocator
	}
	return id, nil
}

// Match resolves a locator to its table entry. For item locators it also
// returns the row id and hasID is true.
func Match(l Locator) (e Entry, id int64, hasID bool, ok bool) {
	rest, found := strings.CutPrefix(string(l), string(BaseLocator)+"/")
	if !found {
		return Entry{}, 0, false, false
	}
	path, idPart, hasSlash := strings.Cut(rest, "/")
	for _, candidate := range Entries() {
		if candidate.Path != path {
			continue
		}
		if !hasSlash {
			return candidate, 0, false, true
		}
		n, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			return Entry{}, 0, false, false
		}
		return candidate, n, true, true
	}
	return Entry{}, 0, false, false
}
