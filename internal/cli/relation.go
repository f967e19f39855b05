package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

func newRelationCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relation",
		Short: "Pair customers with products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <customer-id> <product-id>",
		Short: "Record that a customer bought a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, err := parseID(args[0], "customer")
			if err != nil {
				return err
			}
			productID, err := parseID(args[1], "product")
			if err != nil {
				return err
			}

			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			r := &types.Relation{CustomerID: customerID, ProductID: productID}
			if _, err := backend.InsertRelation(r); err != nil {
				if errors.Is(err, types.ErrInsertFailed) {
					return userError("add relation: %w", err)
				}
				return sysError("add relation: %w", err)
			}
			return printAdded(cmd, flags, addedRow{ID: r.ID, Locator: contract.Relation.ItemLocator(r.ID).String()})
		},
	})

	var customerFilter int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List relations, or the products of one customer with --customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			if customerFilter > 0 {
				products, err := backend.CustomerProducts(customerFilter)
				if err != nil {
					return sysError("list customer products: %w", err)
				}
				if flags.jsonMode {
					return printJSON(cmd, products)
				}
				for _, p := range products {
					fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", p.ID, p.Name)
				}
				return nil
			}

			relations, err := backend.Relations()
			if err != nil {
				return sysError("list relations: %w", err)
			}
			if flags.jsonMode {
				return printJSON(cmd, relations)
			}
			for _, r := range relations {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\t%d\n", r.ID, r.CustomerID, r.ProductID)
			}
			return nil
		},
	}
	list.Flags().Int64Var(&customerFilter, "customer", 0, "only list products related to this customer id")
	cmd.AddCommand(list)

	return cmd
}
