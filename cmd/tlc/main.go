// Command tlc is the type checker's command-line driver. Grounded on
// vovakirdan-surge's cmd/surge (cobra root command plus one subcommand per
// verb), trimmed to the single verb this checker exposes. The driver
// itself is out of scope for the checker's core per spec.md §1 ("the
// command-line driver" is listed as an external collaborator); this
// package exists only to wire the core packages (pkg/config, pkg/stdlib,
// pkg/modules, pkg/checker, pkg/diagnostics) into something runnable.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tlc",
	Short: "Static type checker for the luanext dialect",
}

func main() {
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
