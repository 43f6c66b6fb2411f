package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bdtools",
	Short: "Demonstrations of the distributed-tools coordination primitives",
	Long: `bdtools runs each primitive in this module (ghost exchange, data
mapper, layout remap, permutation) against a simulated in-process rank
group, the same shape the real library expects from an MPI job.`,
}

// Execute runs the selected subcommand and exits 1 on failure, the same
// fail-fast posture the rest of this module uses for runtime errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(ghostCmd)
	rootCmd.AddCommand(mapperCmd)
	rootCmd.AddCommand(remapCmd)
	rootCmd.AddCommand(permutationCmd)
}
