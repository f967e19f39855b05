package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// addedRow is printed by the add subcommands.
type addedRow struct {
	ID      int64  `json:"id"`
	Locator string `json:"locator"`
}

func printAdded(cmd *cobra.Command, flags *rootFlags, row addedRow) error {
	if flags.jsonMode {
		return printJSON(cmd, row)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", row.ID, row.Locator)
	return nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userError("invalid %s id %q", what, arg)
	}
	return id, nil
}
