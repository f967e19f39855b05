package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

// InsertCustomer validates c, inserts it, and sets c.ID.
func (b *Backend) InsertCustomer(c *types.Customer) (int64, error) {
	if err := c.Validate(); err != nil {
		return types.InvalidRowID, err
	}
	id, err := b.Insert(contract.TableCustomer, c.Values())
	if err != nil {
		return types.InvalidRowID, err
	}
	c.ID = id
	return id, nil
}

// Customers returns every customer ordered by id.
func (b *Backend) Customers() ([]types.Customer, error) {
	return b.fetchCustomers(nil)
}

// GetCustomer returns the customer with the given id or types.ErrNotFound.
func (b *Backend) GetCustomer(id int64) (*types.Customer, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	cs, err := b.fetchCustomers(types.Values{contract.ColumnID: id})
	if err != nil {
		return nil, err
	}
	if len(cs) == 0 {
		return nil, types.ErrNotFound
	}
	return &cs[0], nil
}

func (b *Backend) fetchCustomers(filter types.Values) ([]types.Customer, error) {
	rows, err := b.Query(contract.TableCustomer, filter)
	if err != nil {
		return nil, err
	}
	out := make([]types.Customer, 0, len(rows))
	for _, r := range rows {
		c, err := hydrateCustomer(r)
		if err != nil {
			return nil, rowError(contract.TableCustomer, r, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// InsertProduct validates p, inserts it, and sets p.ID.
func (b *Backend) InsertProduct(p *types.Product) (int64, error) {
	if err := p.Validate(); err != nil {
		return types.InvalidRowID, err
	}
	id, err := b.Insert(contract.TableProduct, p.Values())
	if err != nil {
		return types.InvalidRowID, err
	}
	p.ID = id
	return id, nil
}

// Products returns every product ordered by id.
func (b *Backend) Products() ([]types.Product, error) {
	return b.fetchProducts(nil)
}

// GetProduct returns the product with the given id or types.ErrNotFound.
func (b *Backend) GetProduct(id int64) (*types.Product, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	ps, err := b.fetchProducts(types.Values{contract.ColumnID: id})
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return nil, types.ErrNotFound
	}
	return &ps[0], nil
}

func (b *Backend) fetchProducts(filter types.Values) ([]types.Product, error) {
	rows, err := b.Query(contract.TableProduct, filter)
	if err != nil {
		return nil, err
	}
	out := make([]types.Product, 0, len(rows))
	for _, r := range rows {
		p, err := hydrateProduct(r)
		if err != nil {
			return nil, rowError(contract.TableProduct, r, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// InsertRelation validates r, inserts it, and sets r.ID. Whether the keys
// must reference existing rows depends on Config.ForeignKeys.
func (b *Backend) InsertRelation(r *types.Relation) (int64, error) {
	if err := r.Validate(); err != nil {
		return types.InvalidRowID, err
	}
	id, err := b.Insert(contract.TableRelation, r.Values())
	if err != nil {
		return types.InvalidRowID, err
	}
	r.ID = id
	return id, nil
}

// Relations returns every relation row ordered by id.
func (b *Backend) Relations() ([]types.Relation, error) {
	rows, err := b.Query(contract.TableRelation, nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.Relation, 0, len(rows))
	for _, row := range rows {
		r, err := hydrateRelation(row)
		if err != nil {
			return nil, rowError(contract.TableRelation, row, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// CustomerProducts returns the products related to a customer, in relation
// insertion order. Relations pointing at missing products are skipped.
func (b *Backend) CustomerProducts(customerID int64) ([]types.Product, error) {
	if customerID <= 0 {
		return nil, types.ErrInvalidID
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != StateReady {
		return nil, types.ErrClosed
	}

	query := fmt.Sprintf(
		"SELECT p.%[1]s, p.%[2]s, p.%[3]s FROM %[4]s r JOIN %[5]s p ON p.%[1]s = r.%[6]s WHERE r.%[7]s = ? ORDER BY r.%[1]s",
		contract.ColumnID, contract.ProductName, contract.ProductPrice,
		contract.TableRelation, contract.TableProduct,
		contract.RelationProductKey, contract.RelationCustomerKey,
	)
	rows, err := b.db.Query(query, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying customer products: %w", err)
	}
	defer rows.Close()

	out := make([]types.Product, 0)
	for rows.Next() {
		var p types.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scanning customer product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Hydration from Values rows.

func hydrateCustomer(v types.Values) (types.Customer, error) {
	var c types.Customer
	var err error
	if c.ID, err = int64Column(v, contract.ColumnID); err != nil {
		return c, err
	}
	if c.Name, err = stringColumn(v, contract.CustomerName); err != nil {
		return c, err
	}
	return c, nil
}

func hydrateProduct(v types.Values) (types.Product, error) {
	var p types.Product
	var err error
	if p.ID, err = int64Column(v, contract.ColumnID); err != nil {
		return p, err
	}
	if p.Name, err = stringColumn(v, contract.ProductName); err != nil {
		return p, err
	}
	if p.Price, err = float64Column(v, contract.ProductPrice); err != nil {
		return p, err
	}
	return p, nil
}

func hydrateRelation(v types.Values) (types.Relation, error) {
	var r types.Relation
	var err error
	if r.ID, err = int64Column(v, contract.ColumnID); err != nil {
		return r, err
	}
	if r.CustomerID, err = int64Column(v, contract.RelationCustomerKey); err != nil {
		return r, err
	}
	if r.ProductID, err = int64Column(v, contract.RelationProductKey); err != nil {
		return r, err
	}
	return r, nil
}

// rowError names the offending row so a single bad row can be found and fixed.
func rowError(table string, v types.Values, err error) error {
	return fmt.Errorf("%s row %v: %w", table, v[contract.ColumnID], err)
}

func int64Column(v types.Values, col string) (int64, error) {
	switch x := v[col].(type) {
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v[col])
	}
}

func float64Column(v types.Values, col string) (float64, error) {
	switch x := v[col].(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v[col])
	}
}

func stringColumn(v types.Values, col string) (string, error) {
	s, ok := v[col].(string)
	if !ok {
		return "", fmt.Errorf("column %s: unexpected type %T", col, v[col])
	}
	return s, nil
}
