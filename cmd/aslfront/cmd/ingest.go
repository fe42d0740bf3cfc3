package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/rlutz/aslfront/pkg/aslfront"
)

var (
	ingestJSON     bool
	ingestJSONOut  string
	ingestWarnings bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Ingest shared_pseudocode.xml and parse every other XML file in a directory",
	Long: `ingest walks dir for shared_pseudocode.xml (ingested first, installing
its functions/accessors/types/variables/arrays/enumerations into the
namespace) and every other *.xml file (each fragment parsed on its own,
never ingested). It reports every lex/parse diagnostic it collects along
the way, plus — with --warnings — every unresolved-identifier warning
the scope resolver raises once the shared namespace is complete.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "emit diagnostics as a JSON array instead of plain text")
	ingestCmd.Flags().StringVar(&ingestJSONOut, "json-out", "", "write --json output to this file instead of stdout")
	ingestCmd.Flags().BoolVar(&ingestWarnings, "warnings", false, "also run the scope resolver and report unresolved-identifier warnings")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dir := args[0]
	verbose, _ := cmd.Flags().GetBool("verbose")

	var xmlFiles []string
	sharedPath := ""
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), ".xml") {
			return nil
		}
		if d.Name() == "shared_pseudocode.xml" {
			sharedPath = path
			return nil
		}
		xmlFiles = append(xmlFiles, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Slice(xmlFiles, func(i, j int) bool { return natural.Less(xmlFiles[i], xmlFiles[j]) })

	p, err := aslfront.New()
	if err != nil {
		return err
	}

	var diags []*aslfront.Error

	if sharedPath == "" {
		exitWithError("no shared_pseudocode.xml found under %s", dir)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "ingesting %s\n", sharedPath)
	}
	data, err := os.ReadFile(sharedPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sharedPath, err)
	}
	if ierr := p.IngestShared(sharedPath, data); ierr != nil {
		diags = append(diags, ierr.Errors...)
	}

	for _, path := range xmlFiles {
		if verbose {
			fmt.Fprintf(os.Stderr, "parsing %s\n", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, ferr := p.ParseFragment(path, data); ferr != nil {
			diags = append(diags, ferr.Errors...)
		}
	}

	if ingestWarnings {
		diags = append(diags, p.ResolveAll()...)
	}

	if ingestJSON {
		return writeJSONDiagnostics(diags)
	}
	for _, d := range diags {
		fmt.Println(d.Error())
	}

	for _, d := range diags {
		if d.IsError() {
			return fmt.Errorf("ingest found %d diagnostic(s)", countErrors(diags))
		}
	}
	return nil
}

func countErrors(diags []*aslfront.Error) int {
	n := 0
	for _, d := range diags {
		if d.IsError() {
			n++
		}
	}
	return n
}

func writeJSONDiagnostics(diags []*aslfront.Error) error {
	out := "[]"
	var err error
	for i, d := range diags {
		prefix := fmt.Sprintf("%d", i)
		out, err = sjson.Set(out, prefix+".file", d.File)
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, prefix+".line", d.Line)
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, prefix+".column", d.Column)
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, prefix+".severity", d.Severity.String())
		if err != nil {
			return err
		}
		out, err = sjson.Set(out, prefix+".message", d.Message)
		if err != nil {
			return err
		}
	}

	var pretty []byte
	var buf strings.Builder
	if err := json.Indent(&buf, []byte(out), "", "  "); err != nil {
		pretty = []byte(out)
	} else {
		pretty = []byte(buf.String())
	}

	if ingestJSONOut == "" {
		fmt.Println(string(pretty))
		return nil
	}
	return os.WriteFile(ingestJSONOut, pretty, 0o644)
}
