package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/pkg/contract"
	"github.com/mesh-intelligence/purchase/pkg/types"
)

func newProductCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Add and list products",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <price>",
		Short: "Add a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return userError("invalid price %q", args[1])
			}

			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			p := &types.Product{Name: args[0], Price: price}
			if _, err := backend.InsertProduct(p); err != nil {
				if errors.Is(err, types.ErrInvalidName) || errors.Is(err, types.ErrInvalidPrice) {
					return userError("add product: %w", err)
				}
				return sysError("add product: %w", err)
			}
			return printAdded(cmd, flags, addedRow{ID: p.ID, Locator: contract.Product.ItemLocator(p.ID).String()})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			products, err := backend.Products()
			if err != nil {
				return sysError("list products: %w", err)
			}
			if flags.jsonMode {
				return printJSON(cmd, products)
			}
			for _, p := range products {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", p.ID, p.Name, strconv.FormatFloat(p.Price, 'f', -1, 64))
			}
			return nil
		},
	})

	return cmd
}
