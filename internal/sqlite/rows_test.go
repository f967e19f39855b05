// Tests for row access: insert/query round trips and the purchase scenarios.
package sqlite

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

func TestInsertQuery_Customer(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	values := types.Values{contract.CustomerName: "Jack"}
	id, err := b.Insert(contract.TableCustomer, values)
	require.NoError(t, err)
	assert.NotEqual(t, types.InvalidRowID, id)

	rows, err := b.Query(contract.TableCustomer, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1, "expected exactly one customer row")
	assert.Equal(t, types.Values{contract.ColumnID: id, contract.CustomerName: "Jack"}, rows[0])
}

func TestInsertQuery_CustomerNames(t *testing.T) {
	names := []string{"Jack", "Mary", "", "O'Brien", "名前", "Robert'); DROP TABLE customer;--"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			b := openTestBackend(t, types.Config{Name: types.InMemory})
			id, err := b.Insert(contract.TableCustomer, types.Values{contract.CustomerName: name})
			require.NoError(t, err)

			rows, err := b.Query(contract.TableCustomer, nil)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, id, rows[0][contract.ColumnID])
			assert.Equal(t, name, rows[0][contract.CustomerName])
		})
	}
}

func TestInsertQuery_Products(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	shirt, err := b.Insert(contract.TableProduct, types.Values{
		contract.ProductName:  "T-shirt",
		contract.ProductPrice: 50,
	})
	require.NoError(t, err)
	skirt, err := b.Insert(contract.TableProduct, types.Values{
		contract.ProductName:  "skirt",
		contract.ProductPrice: 80,
	})
	require.NoError(t, err)
	assert.NotEqual(t, shirt, skirt)

	rows, err := b.Query(contract.TableProduct, nil)
	require.NoError(t, err)

	want := []types.Values{
		{contract.ColumnID: skirt, contract.ProductName: "skirt", contract.ProductPrice: 80.0},
		{contract.ColumnID: shirt, contract.ProductName: "T-shirt", contract.ProductPrice: 50.0},
	}
	sortByID := cmpopts.SortSlices(func(a, b types.Values) bool {
		return a[contract.ColumnID].(int64) < b[contract.ColumnID].(int64)
	})
	if diff := cmp.Diff(want, rows, sortByID); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}
}

func TestInsert_Errors(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	tests := []struct {
		name    string
		table   string
		values  types.Values
		wantErr error
	}{
		{"unknown table", "weather", types.Values{"name": "x"}, types.ErrTableNotFound},
		{"empty values", contract.TableCustomer, types.Values{}, types.ErrInvalidData},
		{"unknown column", contract.TableCustomer, types.Values{"email": "x"}, types.ErrUnknownColumn},
		{"missing price", contract.TableProduct, types.Values{contract.ProductName: "hat"}, types.ErrInsertFailed},
		{"null name", contract.TableCustomer, types.Values{contract.CustomerName: nil}, types.ErrInsertFailed},
		{"duplicate id", contract.TableCustomer, types.Values{contract.ColumnID: int64(1), contract.CustomerName: "again"}, types.ErrInsertFailed},
		{"text price", contract.TableProduct, types.Values{contract.ProductName: "x", contract.ProductPrice: "abc"}, types.ErrInvalidData},
		{"numeric name", contract.TableCustomer, types.Values{contract.CustomerName: 42}, types.ErrInvalidData},
		{"fractional key", contract.TableRelation, types.Values{contract.RelationCustomerKey: 1.5, contract.RelationProductKey: int64(1)}, types.ErrInvalidData},
		{"blob name", contract.TableCustomer, types.Values{contract.CustomerName: []byte("x")}, types.ErrInvalidData},
	}

	_, err := b.Insert(contract.TableCustomer, types.Values{contract.ColumnID: int64(1), contract.CustomerName: "first"})
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := b.Insert(tt.table, tt.values)
			assert.Equal(t, types.InvalidRowID, id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestInsert_RejectedKindLeavesTableReadable(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	shirt := &types.Product{Name: "T-shirt", Price: 50}
	_, err := b.InsertProduct(shirt)
	require.NoError(t, err)

	id, err := b.Insert(contract.TableProduct, types.Values{contract.ProductName: "x", contract.ProductPrice: "abc"})
	assert.Equal(t, types.InvalidRowID, id)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	products, err := b.Products()
	require.NoError(t, err)
	assert.Equal(t, []types.Product{*shirt}, products)
}

func TestProducts_BadRowIsNamed(t *testing.T) {
	b := openTestBackend(t, types.Config{})
	db, err := b.DB()
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO product (_id, name, price) VALUES (7, 'x', 'abc')")
	require.NoError(t, err)

	_, err = b.Products()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product row 7")
}

func TestCustomerProducts_EmptyIsNotNil(t *testing.T) {
	b := openTestBackend(t, types.Config{})
	products, err := b.CustomerProducts(1)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestQuery_Filter(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	for _, name := range []string{"Jack", "Mary", "Jack"} {
		_, err := b.Insert(contract.TableCustomer, types.Values{contract.CustomerName: name})
		require.NoError(t, err)
	}

	rows, err := b.Query(contract.TableCustomer, types.Values{contract.CustomerName: "Jack"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = b.Query(contract.TableCustomer, types.Values{
		contract.CustomerName: "Jack",
		contract.ColumnID:     int64(3),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0][contract.ColumnID])

	rows, err = b.Query(contract.TableCustomer, types.Values{contract.CustomerName: "Nobody"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = b.Query(contract.TableCustomer, types.Values{"email": "x"})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)

	_, err = b.Query("weather", nil)
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestDelete(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	id, err := b.Insert(contract.TableCustomer, types.Values{contract.CustomerName: "Jack"})
	require.NoError(t, err)

	require.NoError(t, b.Delete(contract.TableCustomer, id))
	assert.ErrorIs(t, b.Delete(contract.TableCustomer, id), types.ErrNotFound)
	assert.ErrorIs(t, b.Delete(contract.TableCustomer, 0), types.ErrInvalidID)
	assert.ErrorIs(t, b.Delete("weather", 1), types.ErrTableNotFound)

	rows, err := b.Query(contract.TableCustomer, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestScenario_Jack(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	jack := &types.Customer{Name: "Jack"}
	r1, err := b.InsertCustomer(jack)
	require.NoError(t, err)
	assert.NotEqual(t, types.InvalidRowID, r1)
	assert.Equal(t, r1, jack.ID)

	customers, err := b.Customers()
	require.NoError(t, err)
	assert.Equal(t, []types.Customer{{ID: r1, Name: "Jack"}}, customers)
}

func TestScenario_Products(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	shirt := &types.Product{Name: "T-shirt", Price: 50}
	skirt := &types.Product{Name: "skirt", Price: 80}
	_, err := b.InsertProduct(shirt)
	require.NoError(t, err)
	_, err = b.InsertProduct(skirt)
	require.NoError(t, err)
	assert.NotEqual(t, shirt.ID, skirt.ID)

	products, err := b.Products()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Product{*shirt, *skirt}, products)

	got, err := b.GetProduct(skirt.ID)
	require.NoError(t, err)
	assert.Equal(t, skirt, got)
}

func TestScenario_Relations(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	shirt := &types.Product{Name: "T-shirt", Price: 50}
	skirt := &types.Product{Name: "skirt", Price: 80}
	jack := &types.Customer{Name: "Jack"}
	mary := &types.Customer{Name: "Mary"}
	for _, p := range []*types.Product{shirt, skirt} {
		_, err := b.InsertProduct(p)
		require.NoError(t, err)
	}
	for _, c := range []*types.Customer{jack, mary} {
		_, err := b.InsertCustomer(c)
		require.NoError(t, err)
	}

	r1 := &types.Relation{CustomerID: jack.ID, ProductID: shirt.ID}
	r2 := &types.Relation{CustomerID: mary.ID, ProductID: skirt.ID}
	_, err := b.InsertRelation(r1)
	require.NoError(t, err)
	_, err = b.InsertRelation(r2)
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)

	relations, err := b.Relations()
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Relation{*r1, *r2}, relations)

	jackProducts, err := b.CustomerProducts(jack.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.Product{*shirt}, jackProducts)

	maryProducts, err := b.CustomerProducts(mary.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.Product{*skirt}, maryProducts)
}

func TestTypedInsert_Validation(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	id, err := b.InsertCustomer(&types.Customer{})
	assert.Equal(t, types.InvalidRowID, id)
	assert.ErrorIs(t, err, types.ErrInvalidName)

	id, err = b.InsertProduct(&types.Product{Name: "hat", Price: -3})
	assert.Equal(t, types.InvalidRowID, id)
	assert.ErrorIs(t, err, types.ErrInvalidPrice)

	id, err = b.InsertRelation(&types.Relation{CustomerID: 1})
	assert.Equal(t, types.InvalidRowID, id)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestGetCustomer(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	mary := &types.Customer{Name: "Mary"}
	_, err := b.InsertCustomer(mary)
	require.NoError(t, err)

	got, err := b.GetCustomer(mary.ID)
	require.NoError(t, err)
	assert.Equal(t, mary, got)

	_, err = b.GetCustomer(mary.ID + 100)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetCustomer(0)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestForeignKeys_Disabled_AllowsOrphans(t *testing.T) {
	b := openTestBackend(t, types.Config{})

	// No referenced rows exist; the engine accepts the relation anyway.
	id, err := b.InsertRelation(&types.Relation{CustomerID: 41, ProductID: 42})
	require.NoError(t, err)
	assert.NotEqual(t, types.InvalidRowID, id)

	jack := &types.Customer{Name: "Jack"}
	_, err = b.InsertCustomer(jack)
	require.NoError(t, err)
	shirt := &types.Product{Name: "T-shirt", Price: 50}
	_, err = b.InsertProduct(shirt)
	require.NoError(t, err)
	_, err = b.InsertRelation(&types.Relation{CustomerID: jack.ID, ProductID: shirt.ID})
	require.NoError(t, err)

	// Deleting a referenced customer orphans its relation row.
	require.NoError(t, b.Delete(contract.TableCustomer, jack.ID))
	rows, err := b.Query(contract.TableRelation, types.Values{contract.RelationCustomerKey: jack.ID})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestForeignKeys_Enabled_RejectsMissingReferences(t *testing.T) {
	b := openTestBackend(t, types.Config{ForeignKeys: true})

	id, err := b.InsertRelation(&types.Relation{CustomerID: 41, ProductID: 42})
	assert.Equal(t, types.InvalidRowID, id)
	assert.ErrorIs(t, err, types.ErrInsertFailed)

	jack := &types.Customer{Name: "Jack"}
	_, err = b.InsertCustomer(jack)
	require.NoError(t, err)
	shirt := &types.Product{Name: "T-shirt", Price: 50}
	_, err = b.InsertProduct(shirt)
	require.NoError(t, err)
	_, err = b.InsertRelation(&types.Relation{CustomerID: jack.ID, ProductID: shirt.ID})
	require.NoError(t, err)

	err = b.Delete(contract.TableCustomer, jack.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNotFound)
}
