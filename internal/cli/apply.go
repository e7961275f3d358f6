package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netfold/netfold/internal/apply"
	"github.com/netfold/netfold/internal/engine"
)

var applyTrial bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Flush pending changes and run the netplan apply tool",
	Long: `Persist any pending fragment changes, then invoke the external netplan
binary to activate the configuration. With --trial the tool's revertible
try mode is requested instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := loadedEngine()
		if err != nil {
			return err
		}

		flushResult, err := eng.Flush()
		if err != nil {
			return err
		}
		if flushResult.Persisted > 0 {
			PrintSuccess(fmt.Sprintf("Persisted %d fragment(s)", flushResult.Persisted))
		}

		result, err := eng.Apply(context.Background(), &engine.ApplyRequest{Trial: applyTrial})
		if err != nil {
			var exitErr *apply.ExitError
			if errors.As(err, &exitErr) {
				PrintError(fmt.Sprintf("apply tool exited with status %d", exitErr.Status))
				if exitErr.Stderr != "" {
					fmt.Fprint(cmd.ErrOrStderr(), exitErr.Stderr)
				}
			}
			return err
		}

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), result)
		}
		if result.Stdout != "" {
			fmt.Fprint(cmd.OutOrStdout(), result.Stdout)
		}
		PrintSuccess("Configuration applied")
		return nil
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyTrial, "trial", false, "Use the tool's revertible try mode")
}
