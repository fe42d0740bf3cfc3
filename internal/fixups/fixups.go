// Package fixups applies the small set of known per-file vendor text
// patches and holds the implicit-identifier allowlist (spec.md §6), both
// loaded from an embedded YAML document with compiled-in defaults so the
// CLI works with zero configuration.
package fixups

import (
	_ "embed"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Patch is one known per-file character-data fix-up, matched by path
// suffix and applied as a literal string replacement.
type Patch struct {
	PathSuffix string `yaml:"path_suffix"`
	Old        string `yaml:"old"`
	New        string `yaml:"new"`
}

// Table is the full set of tunable data spec.md §6 names: the vendor
// patch list and the implicit-identifier allowlist.
type Table struct {
	Patches           []Patch  `yaml:"patches"`
	ImplicitAllowlist []string `yaml:"implicit_allowlist"`
}

// Default parses the compiled-in defaults document. It panics only if the
// embedded document itself is malformed, which would be a build-time bug.
func Default() *Table {
	t, err := Parse(defaultsYAML)
	if err != nil {
		panic("fixups: embedded defaults.yaml is malformed: " + err.Error())
	}
	return t
}

// Parse loads a Table from a YAML document, for operators who want to
// override or extend the compiled-in defaults.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Apply runs every patch whose PathSuffix matches path against data,
// returning the patched text. Patches are applied in table order; each is
// a single literal, non-overlapping replacement.
func (t *Table) Apply(path, data string) string {
	for _, p := range t.Patches {
		if strings.HasSuffix(path, p.PathSuffix) {
			data = strings.Replace(data, p.Old, p.New, 1)
		}
	}
	return data
}
