// Package types defines the purchase entity types, the Database interface,
// configuration, and the standard errors shared by the storage backend and
// the CLI.
package types
