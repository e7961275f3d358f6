package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Write back fragments that changed",
	Long: `Serialize every fragment mutated since load and persist the ones whose
content actually changed. Fragments are written one at a time; a failure stops
the flush and the remaining fragments stay pending.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		result, err := eng.Flush()
		if err != nil {
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		if result.Persisted == 0 {
			PrintDim("Nothing to flush")
			return nil
		}
		PrintSuccess(fmt.Sprintf("Persisted %d fragment(s)", result.Persisted))
		for _, id := range result.Written {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
		}
		return nil
	},
}
