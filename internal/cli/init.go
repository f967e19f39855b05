package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/purchase/internal/paths"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize purchase storage",
		Long:  "Create the configuration file if missing, then create or upgrade the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(flags.configDir)
			if err != nil {
				return sysError("resolve config dir: %w", err)
			}
			if _, err := writeConfigIfMissing(configDir, flags.dataDir); err != nil {
				return sysError("write config: %w", err)
			}

			backend, err := openBackend(cmd, flags)
			if err != nil {
				return err
			}
			path := backend.Path()
			version, err := backend.Version()
			if err != nil {
				backend.Close()
				return sysError("read version: %w", err)
			}
			if err := backend.Close(); err != nil {
				return sysError("close database: %w", err)
			}

			if flags.jsonMode {
				return printJSON(cmd, map[string]any{"path": path, "version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purchase database ready at %s (schema version %d)\n", path, version)
			return nil
		},
	}
}
