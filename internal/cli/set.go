package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netfold/netfold/internal/engine"
	"github.com/netfold/netfold/internal/fragio"
)

var setDryRun bool

var setCmd = &cobra.Command{
	Use:   "set <category> <name> <yaml>",
	Short: "Merge settings into one entity",
	Long: `Merge a YAML mapping into a single entity's configuration and write the
owning fragment back to disk.

The edit lands in the fragment that currently owns the entity: the
latest-sorted fragment already defining it, falling back to any fragment
defining the category, then to the earliest fragment. Scalar values overwrite,
nested mappings merge, and lists combine per the --merge-lists policy.

Example:
  netfold set ethernets ens33 '{dhcp4: false, addresses: [10.0.0.5/24]}'`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := fragio.Parse([]byte(args[2]))
		if err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
		if !data.IsMapping() {
			return fmt.Errorf("settings must be a YAML mapping")
		}

		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		result, err := eng.SetEntity(&engine.SetRequest{
			Category: args[0],
			Name:     args[1],
			Data:     data,
		})
		if err != nil {
			return err
		}

		if setDryRun {
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"owner":  result.Owner,
					"entity": result.Entity.Interface(),
					"dryRun": true,
				})
			}
			PrintWarning(fmt.Sprintf("Dry run: %s/%s would be updated in %s", args[0], args[1], result.Owner))
			return writeTree(cmd.OutOrStdout(), result.Entity)
		}

		flushResult, err := eng.Flush()
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"owner":     result.Owner,
				"entity":    result.Entity.Interface(),
				"persisted": flushResult.Persisted,
			})
		}
		if flushResult.Persisted == 0 {
			PrintDim("No change: %s/%s already matches in %s", args[0], args[1], result.Owner)
			return nil
		}
		PrintSuccess(fmt.Sprintf("Updated %s/%s in %s", args[0], args[1], result.Owner))
		return nil
	},
}

func init() {
	setCmd.Flags().BoolVar(&setDryRun, "dry-run", false, "Merge in memory and show the result without writing")
}
