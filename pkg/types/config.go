package types

import (
	"errors"
	"strings"
)

// Database file defaults.
const (
	DefaultName    = "purchase.db"
	DefaultVersion = 1

	// InMemory as Name opens a private in-memory database; DataDir is ignored.
	InMemory = ":memory:"
)

// Config describes the database file and the schema version expected by the caller.
type Config struct {
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	Name        string `json:"db_name" yaml:"db_name"`
	Version     int    `json:"db_version" yaml:"db_version"`
	ForeignKeys bool   `json:"foreign_keys" yaml:"foreign_keys"`
}

// Config validation errors.
var (
	ErrInvalidVersion = errors.New("schema version must be positive")
	ErrInvalidDBName  = errors.New("database name must not contain path separators")
)

// WithDefaults returns a copy of c with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Version == 0 {
		c.Version = DefaultVersion
	}
	return c
}

// Validate checks that the Config is well-formed after defaults are applied.
func (c Config) Validate() error {
	c = c.WithDefaults()
	if c.Version < 1 {
		return ErrInvalidVersion
	}
	if c.Name != InMemory && strings.ContainsAny(c.Name, `/\`) {
		return ErrInvalidDBName
	}
	return nil
}
