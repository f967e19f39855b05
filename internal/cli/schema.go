package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/pkg/contract"
)

// tableInfo is one table of the schema command output.
type tableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the schema version, tables and columns of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			version, err := backend.Version()
			if err != nil {
				return sysError("read version: %w", err)
			}
			names, err := backend.Tables()
			if err != nil {
				return sysError("list tables: %w", err)
			}

			tables := make([]tableInfo, 0, len(names))
			for _, name := range names {
				info := tableInfo{Name: name}
				if _, known := contract.Lookup(name); known {
					if info.Columns, err = backend.Columns(name); err != nil {
						return sysError("columns of %s: %w", name, err)
					}
				}
				tables = append(tables, info)
			}

			if flags.jsonMode {
				return printJSON(cmd, map[string]any{"version": version, "tables": tables})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Name, strings.Join(t.Columns, ", "))
			}
			return nil
		},
	}
}
