package sqlite

import (
	"bytes"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

// testMigrations upgrades version 1 by adding a nullable sku column.
var testMigrations = fstest.MapFS{
	"migrations/1_base.up.sql":            {Data: []byte("SELECT 1;")},
	"migrations/2_add_product_sku.up.sql": {Data: []byte("ALTER TABLE product ADD COLUMN sku TEXT;")},
}

func TestMigrateUpgrader_PreservesRows(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Open(types.Config{DataDir: tmpDir, Version: 1}))
	jack := &types.Customer{Name: "Jack"}
	_, err := b.InsertCustomer(jack)
	require.NoError(t, err)
	shirt := &types.Product{Name: "T-shirt", Price: 50}
	_, err = b.InsertProduct(shirt)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	migrating := NewBackend(
		WithLogger(logger),
		WithUpgrader(MigrateUpgrader{Source: testMigrations, Dir: "migrations", Logger: logger}),
	)
	require.NoError(t, migrating.Open(types.Config{DataDir: tmpDir, Version: 2}))
	defer migrating.Close()

	v, err := migrating.Version()
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	customers, err := migrating.Customers()
	require.NoError(t, err)
	assert.Equal(t, []types.Customer{*jack}, customers)

	products, err := migrating.Products()
	require.NoError(t, err)
	assert.Equal(t, []types.Product{*shirt}, products)

	cols, err := migrating.Columns(contract.TableProduct)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "price", "sku"}, cols)

	tables, err := migrating.Tables()
	require.NoError(t, err)
	assert.Contains(t, tables, "schema_migrations")

	assert.Contains(t, logs.String(), "upgrading schema")
}

func TestMigrateUpgrader_MissingTargetVersion(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Open(types.Config{DataDir: tmpDir, Version: 1}))
	require.NoError(t, b.Close())

	migrating := NewBackend(WithUpgrader(MigrateUpgrader{Source: testMigrations, Dir: "migrations"}))
	err := migrating.Open(types.Config{DataDir: tmpDir, Version: 7})
	assert.Error(t, err)
	assert.Equal(t, StateUnopened, migrating.State())
}

func TestMigrateUpgrader_NilSource(t *testing.T) {
	err := MigrateUpgrader{}.Upgrade(nil, 1, 2)
	assert.Error(t, err)
}

func TestMigrateUpgrader_RetryAfterFailedStep(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Open(types.Config{DataDir: tmpDir, Version: 1}))
	shirt := &types.Product{Name: "T-shirt", Price: 50}
	_, err := b.InsertProduct(shirt)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	broken := fstest.MapFS{
		"migrations/1_base.up.sql":              testMigrations["migrations/1_base.up.sql"],
		"migrations/2_add_product_sku.up.sql":   testMigrations["migrations/2_add_product_sku.up.sql"],
		"migrations/3_add_product_color.up.sql": {Data: []byte("ALTER TABLE no_such_table ADD COLUMN color TEXT;")},
	}
	failing := NewBackend(WithUpgrader(MigrateUpgrader{Source: broken, Dir: "migrations"}))
	err = failing.Open(types.Config{DataDir: tmpDir, Version: 3})
	require.Error(t, err)
	assert.Equal(t, StateUnopened, failing.State())

	// Step 2 committed, so the stored version follows it.
	db, err := sql.Open("sqlite", filepath.Join(tmpDir, types.DefaultName))
	require.NoError(t, err)
	v, err := readVersion(db)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Equal(t, 2, v)

	fixed := fstest.MapFS{
		"migrations/1_base.up.sql":              testMigrations["migrations/1_base.up.sql"],
		"migrations/2_add_product_sku.up.sql":   testMigrations["migrations/2_add_product_sku.up.sql"],
		"migrations/3_add_product_color.up.sql": {Data: []byte("ALTER TABLE product ADD COLUMN color TEXT;")},
	}
	retry := NewBackend(WithUpgrader(MigrateUpgrader{Source: fixed, Dir: "migrations"}))
	require.NoError(t, retry.Open(types.Config{DataDir: tmpDir, Version: 3}))
	defer retry.Close()

	v, err = retry.Version()
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	cols, err := retry.Columns(contract.TableProduct)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "price", "sku", "color"}, cols)

	products, err := retry.Products()
	require.NoError(t, err)
	assert.Equal(t, []types.Product{*shirt}, products)
}

func TestMigrateUpgrader_TrustsRecordedCleanVersion(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Open(types.Config{DataDir: tmpDir, Version: 1}))
	require.NoError(t, b.Close())

	migrating := NewBackend(WithUpgrader(MigrateUpgrader{Source: testMigrations, Dir: "migrations"}))
	require.NoError(t, migrating.Open(types.Config{DataDir: tmpDir, Version: 2}))
	require.NoError(t, migrating.Close())

	// user_version lags behind schema_migrations, as after an interrupted stamp.
	db, err := sql.Open("sqlite", filepath.Join(tmpDir, types.DefaultName))
	require.NoError(t, err)
	require.NoError(t, writeVersion(db, 1))
	require.NoError(t, db.Close())

	require.NoError(t, migrating.Open(types.Config{DataDir: tmpDir, Version: 2}))
	defer migrating.Close()
	cols, err := migrating.Columns(contract.TableProduct)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "price", "sku"}, cols)
}
