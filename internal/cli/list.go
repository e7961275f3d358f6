package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "List the entity names in a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		names, ok := eng.EntityNames(args[0])
		if !ok {
			return fmt.Errorf("category %q not found", args[0])
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), names)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
