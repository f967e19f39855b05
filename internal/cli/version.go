package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the purchase release version.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/purchase"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the purchase version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "purchase v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
