package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/pkg/contract"
)

// locatorInfo is the output of the uri command.
type locatorInfo struct {
	Table           string `json:"table"`
	Locator         string `json:"locator"`
	ContentType     string `json:"content_type"`
	ContentItemType string `json:"content_item_type"`
}

func newURICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "uri <table> [id]",
		Short: "Print the resource locator and content types of a table or row",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, ok := contract.Lookup(args[0])
			if !ok {
				names := make([]string, 0, 3)
				for _, e := range contract.Entries() {
					names = append(names, e.Table)
				}
				return userError("unknown table %q (valid: %s)", args[0], strings.Join(names, ", "))
			}

			locator := entry.Locator()
			if len(args) == 2 {
				id, err := parseID(args[1], entry.Table)
				if err != nil {
					return err
				}
				locator = entry.ItemLocator(id)
			}

			info := locatorInfo{
				Table:           entry.Table,
				Locator:         locator.String(),
				ContentType:     entry.ContentType(),
				ContentItemType: entry.ContentItemType(),
			}
			if flags.jsonMode {
				return printJSON(cmd, info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Locator)
			fmt.Fprintln(cmd.OutOrStdout(), info.ContentType)
			fmt.Fprintln(cmd.OutOrStdout(), info.ContentItemType)
			return nil
		},
	}
}
