package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configDir  string
	netplanBin string
	jsonOutput bool
	mergeMode  string
)

// rootCmd is the root command for netfold.
var rootCmd = &cobra.Command{
	Use:     "netfold",
	Version: "dev",
	Short:   "Layered netplan configuration editor",
	Long: `netfold merges the ordered YAML fragments of a netplan configuration
directory into one logical plan, edits a single interface in place, and
writes back only the fragment files that actually changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion sets the version reported by the root command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Fragment directory (default /etc/netplan)")
	rootCmd.PersistentFlags().StringVar(&netplanBin, "netplan-bin", "", "Path of the netplan binary (default /usr/sbin/netplan)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&mergeMode, "merge-lists", "dedup", "List merge policy: dedup or concat")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "plan-queries",
		Title: "Plan Queries:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "plan-editing",
		Title: "Plan Editing:",
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the netfold CLI version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(os.Stdout, rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	showCmd.GroupID = "plan-queries"
	listCmd.GroupID = "plan-queries"
	statusCmd.GroupID = "plan-queries"
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)

	setCmd.GroupID = "plan-editing"
	flushCmd.GroupID = "plan-editing"
	applyCmd.GroupID = "plan-editing"
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(applyCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
