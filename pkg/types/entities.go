package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/purchase/pkg/contract"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Customer is a row of the customer table.
type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

// Product is a row of the product table.
type Product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

// Relation pairs a customer with a product.
type Relation struct {
	ID         int64 `json:"id"`
	CustomerID int64 `json:"customer_id" validate:"required"`
	ProductID  int64 `json:"product_id" validate:"required"`
}

// Validate checks the customer fields required for an insert.
func (c *Customer) Validate() error { return validateEntity(c) }

// Validate checks the product fields required for an insert.
func (p *Product) Validate() error { return validateEntity(p) }

// Validate checks that both keys are set.
func (r *Relation) Validate() error { return validateEntity(r) }

// Values returns the insertable columns. The id is left to the engine.
func (c *Customer) Values() Values {
	return Values{contract.CustomerName: c.Name}
}

// Values returns the insertable columns. The id is left to the engine.
func (p *Product) Values() Values {
	return Values{
		contract.ProductName:  p.Name,
		contract.ProductPrice: p.Price,
	}
}

// Values returns the insertable columns. The id is left to the engine.
func (r *Relation) Values() Values {
	return Values{
		contract.RelationCustomerKey: r.CustomerID,
		contract.RelationProductKey:  r.ProductID,
	}
}

// validateEntity runs the struct tags and maps the first failing field to a
// sentinel error from this package.
func validateEntity(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Name":
		return fmt.Errorf("%w: %s failed %q", ErrInvalidName, fe.Namespace(), fe.Tag())
	case "Price":
		return fmt.Errorf("%w: %v", ErrInvalidPrice, fe.Value())
	default:
		return fmt.Errorf("%w: %s failed %q", ErrInvalidData, fe.Namespace(), fe.Tag())
	}
}
