package xmldriver

import (
	"testing"

	"github.com/rlutz/aslfront/internal/diagnostics"
	"github.com/rlutz/aslfront/internal/fixups"
	"github.com/rlutz/aslfront/pkg/token"
)

func tok(k token.Kind) token.Token { return token.New(k, token.Position{}) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		b    token.Block
		want FragmentKind
	}{
		{"empty", nil, FragmentEmpty},
		{
			"semi-newline tail is a block",
			token.Block{tok(token.IDENT), tok(token.EQ), tok(token.NUMBER), tok(token.SEMI), tok(token.NEWLINE)},
			FragmentBlock,
		},
		{
			"trailing nested block is a block",
			token.Block{tok(token.IF), token.Block{tok(token.IDENT)}},
			FragmentBlock,
		},
		{
			"leading type identifier is a block",
			token.Block{token.NewLit(token.IDENT, "type", token.Position{}), tok(token.IDENT), tok(token.SEMI)},
			FragmentBlock,
		},
		{
			"bare expression",
			token.Block{tok(token.IDENT), tok(token.PLUS), tok(token.NUMBER)},
			FragmentExpression,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.b); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessFileExpression(t *testing.T) {
	src := `<ps name="frag" mylink="frag" secttype="Operation">
  <pstext mayhavelinks="1" section="Execute" rep_section="execute">1 + 2 * 3</pstext>
</ps>`

	d := New(fixups.Default())
	frags, err := d.ProcessFile("/tmp/op.xml", []byte(src), false)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	f := frags[0]
	if len(f.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", f.Diagnostics)
	}
	if f.Kind != FragmentExpression {
		t.Fatalf("Kind = %v, want FragmentExpression", f.Kind)
	}
	if f.Expr == nil {
		t.Fatal("Expr is nil")
	}
	if got, want := f.Expr.String(), "(1 + (2 * 3))"; got != want {
		t.Errorf("Expr.String() = %q, want %q", got, want)
	}
}

func TestProcessFileBlockWithLink(t *testing.T) {
	src := `<ps name="frag" mylink="frag" secttype="Library">
  <pstext mayhavelinks="1" section="Functions" rep_section="functions">X = <a link="foo" hover="foo">foo</a>;</pstext>
</ps>`

	d := New(fixups.Default())
	frags, err := d.ProcessFile("/tmp/lib.xml", []byte(src), false)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	f := frags[0]
	if len(f.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", f.Diagnostics)
	}
	if f.Kind != FragmentBlock {
		t.Fatalf("Kind = %v, want FragmentBlock", f.Kind)
	}
	if len(f.Stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(f.Stmts))
	}
}

func TestProcessFileLexError(t *testing.T) {
	src := `<ps name="bad" mylink="bad" secttype="Operation">
  <pstext mayhavelinks="1" section="Execute" rep_section="execute">X = 1 ` + "`" + `;</pstext>
</ps>`

	d := New(fixups.Default())
	frags, err := d.ProcessFile("/tmp/bad.xml", []byte(src), false)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("got %d fragments, want 1", len(frags))
	}
	if len(frags[0].Diagnostics) == 0 {
		t.Fatal("expected a diagnostic for the stray backtick")
	}
	if frags[0].Diagnostics[0].Kind != diagnostics.Lex {
		t.Errorf("Kind = %v, want Lex", frags[0].Diagnostics[0].Kind)
	}
}

func TestInvalidFragmentShape(t *testing.T) {
	src := `<ps name="bad" mylink="bad" secttype="Operation">
  <pstext mayhavelinks="1" section="Decode" rep_section="decode">1</pstext>
</ps>`

	d := New(fixups.Default())
	if _, err := d.ProcessFile("/tmp/bad.xml", []byte(src), false); err == nil {
		t.Fatal("expected an error for an invalid (secttype, section, rep_section) tuple")
	}
}
