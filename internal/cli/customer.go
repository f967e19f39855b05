package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

func newCustomerCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Add and list customers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			c := &types.Customer{Name: args[0]}
			if _, err := backend.InsertCustomer(c); err != nil {
				if errors.Is(err, types.ErrInvalidName) {
					return userError("add customer: %w", err)
				}
				return sysError("add customer: %w", err)
			}
			return printAdded(cmd, flags, addedRow{ID: c.ID, Locator: contract.Customer.ItemLocator(c.ID).String()})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			customers, err := backend.Customers()
			if err != nil {
				return sysError("list customers: %w", err)
			}
			if flags.jsonMode {
				return printJSON(cmd, customers)
			}
			for _, c := range customers {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	})

	return cmd
}
