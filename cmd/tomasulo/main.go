// Command tomasulo runs or serves the cycle-accurate Tomasulo
// simulator against an assembly-text program, the way
// ehrlich-b-go-ublk/cmd/ublk-mem wires flags, logging, and a single
// action together for a standalone binary.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/maemo32/tomasulo/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "tomasulo",
		Short: "Cycle-accurate Tomasulo out-of-order simulator",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logConfig := logging.DefaultConfig()
		if verbose {
			logConfig.Level = logging.LevelDebug
		}
		logging.SetDefault(logging.NewLogger(logConfig))
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	return root
}
