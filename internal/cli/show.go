package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [category [name]]",
	Short: "Show the merged plan, one category, or one entity",
	Long: `Display the configuration obtained by merging all fragments in order.

With no arguments the whole plan is shown. With a category (e.g. "ethernets")
only that category's entities are shown; with a category and a name, a single
entity.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		switch len(args) {
		case 0:
			return writeTree(cmd.OutOrStdout(), eng.Plan())
		case 1:
			entities, ok := eng.Entities(args[0])
			if !ok {
				return fmt.Errorf("category %q not found", args[0])
			}
			return writeTree(cmd.OutOrStdout(), entities)
		default:
			entity, ok := eng.Entity(args[0], args[1])
			if !ok {
				return fmt.Errorf("%s %q not found", args[0], args[1])
			}
			return writeTree(cmd.OutOrStdout(), entity)
		}
	},
}
