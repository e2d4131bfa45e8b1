package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/XVilka/fcd/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "fcd",
	Short: "A machine-code decompiler back-end",
	Long: `fcd recovers structured pseudo-code from the control-flow
graphs a lifting front-end emits for each function.

Features:
  • SESE normalization of irreducible and multi-exit cycles
  • Dominance-based region analysis
  • Goto-free structurization with reaching conditions`,
	Version: version.Short(),
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewStructurizeCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
