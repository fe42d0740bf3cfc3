package cmd

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/rlutz/aslfront/internal/fixups"
	"github.com/rlutz/aslfront/internal/xmldriver"
)

var tokenizeShared bool

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Parse one XML file's fragments and dump their classification and AST",
	Long: `tokenize runs one XML file through the tokenizer and parser fragment by
fragment and pretty-prints each fragment's classification (empty, block
or expression) and resulting AST, without touching the namespace. Pass
--shared for shared_pseudocode.xml itself, whose blocks parse as
declarations rather than statements.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenize,
}

func init() {
	rootCmd.AddCommand(tokenizeCmd)

	tokenizeCmd.Flags().BoolVar(&tokenizeShared, "shared", false, "parse fragment bodies as declarations (shared_pseudocode.xml)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	driver := xmldriver.New(fixups.Default())
	frags, err := driver.ProcessFile(path, data, tokenizeShared)
	if err != nil {
		return fmt.Errorf("processing %s: %w", path, err)
	}

	for _, f := range frags {
		pretty.Println(f)
		for _, d := range f.Diagnostics {
			fmt.Println(d.Error())
		}
	}
	return nil
}
