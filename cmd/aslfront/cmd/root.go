package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aslfront",
	Short: "Front-end for ARM's ASL pseudocode XML export",
	Long: `aslfront tokenizes, parses and resolves names in the ASL pseudocode
XML export ARM ships alongside each Architecture Reference Manual: the
shared function/accessor library in shared_pseudocode.xml plus the
per-instruction Decode/Execute/Postdecode fragments embedded in every
other XML file.

It is a front-end only: it does not interpret ASL or emit executable
code.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
