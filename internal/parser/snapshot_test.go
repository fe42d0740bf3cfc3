package parser

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// dumpProgram renders a parsed program's statements as their String() form,
// one per line, for golden-snapshot comparison.
func dumpProgram(t *testing.T, src string) string {
	t.Helper()
	body := parseProgramFromSrc(t, src)
	lines := make([]string, len(body))
	for i, stmt := range body {
		lines[i] = stmt.String()
	}
	return strings.Join(lines, "\n")
}

func TestParseProgramSnapshots(t *testing.T) {
	cases := map[string]string{
		"if_elsif_else": "if X then\n    Y = 1;\nelsif Z then\n    Y = 2;\nelse\n    Y = 3;\n",
		"for_downto":    "for i = 3 downto 0\n    X = i;\n",
		"while_loop":    "while X do\n    Y = 1;\n",
		"repeat_until":  "repeat\n    X = 1;\nuntil X == 1;\n",
		"case_clauses":  "case X of\n    when 1\n        Y = 1;\n    otherwise\n        Y = 2;\n",
		"call_stmt":     "DoThing(1, 2);\n",
		"constant_decl": "constant integer X = 1;\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			snaps.MatchSnapshot(t, dumpProgram(t, src))
		})
	}
}
