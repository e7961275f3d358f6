package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the loaded fragments and pending changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		status := eng.Status()
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), status)
		}

		PrintHeader("Fragments:")
		for _, id := range status.Fragments {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
		}

		categories := make([]string, 0, len(status.Categories))
		for category := range status.Categories {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		PrintHeader("Entities:")
		for _, category := range categories {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %d\n", category, status.Categories[category])
		}

		if len(status.Dirty) > 0 {
			PrintWarning(fmt.Sprintf("%d fragment(s) pending persistence", len(status.Dirty)))
		}
		return nil
	},
}
