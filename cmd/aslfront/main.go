// Command aslfront ingests and parses ARM's ASL pseudocode XML export and
// reports diagnostics.
package main

import (
	"fmt"
	"os"

	"github.com/rlutz/aslfront/cmd/aslfront/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
