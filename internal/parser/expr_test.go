package parser

import (
	"testing"

	"github.com/rlutz/aslfront/internal/ast"
)

func parseExprFromSrc(t *testing.T, src string) ast.Expr {
	t.Helper()
	s := newTestStream(t, src)
	e, err := ParseExpr(s)
	if err != nil {
		t.Fatalf("ParseExpr(%q): %v", src, err)
	}
	return e
}

func TestParseBinaryPrecedence(t *testing.T) {
	e := parseExprFromSrc(t, "1 + 2 * 3")
	if e.String() != "(1 + (2 * 3))" {
		t.Errorf("String() = %q, want %q", e.String(), "(1 + (2 * 3))")
	}
}

func TestParseBinaryLeftAssociative(t *testing.T) {
	e := parseExprFromSrc(t, "1 - 2 - 3")
	if e.String() != "((1 - 2) - 3)" {
		t.Errorf("String() = %q, want %q", e.String(), "((1 - 2) - 3)")
	}
}

func TestParseUnaryChain(t *testing.T) {
	e := parseExprFromSrc(t, "!!X")
	if e.String() != "!!X" {
		t.Errorf("String() = %q, want %q", e.String(), "!!X")
	}
}

func TestParseTernaryIfThenElse(t *testing.T) {
	e := parseExprFromSrc(t, "if X then 1 else 2")
	tern, ok := e.(*ast.Ternary)
	if !ok {
		t.Fatalf("got %T, want *ast.Ternary", e)
	}
	if tern.Cond.String() != "X" || tern.Then.String() != "1" || tern.Else.String() != "2" {
		t.Errorf("Ternary = %q / %q / %q", tern.Cond, tern.Then, tern.Else)
	}
}

func TestParseTernaryElsifChain(t *testing.T) {
	e := parseExprFromSrc(t, "if X then 1 elsif Y then 2 else 3")
	outer, ok := e.(*ast.Ternary)
	if !ok {
		t.Fatalf("got %T, want *ast.Ternary", e)
	}
	inner, ok := outer.Else.(*ast.Ternary)
	if !ok {
		t.Fatalf("outer.Else = %T, want *ast.Ternary", outer.Else)
	}
	if inner.Cond.String() != "Y" {
		t.Errorf("inner.Cond = %q, want Y", inner.Cond.String())
	}
}

func TestParseParenSingleUnwraps(t *testing.T) {
	e := parseExprFromSrc(t, "(X)")
	if _, ok := e.(*ast.Identifier); !ok {
		t.Fatalf("got %T, want *ast.Identifier (unwrapped)", e)
	}
}

func TestParseParenTuple(t *testing.T) {
	e := parseExprFromSrc(t, "(X, Y)")
	tup, ok := e.(*ast.Tuple)
	if !ok {
		t.Fatalf("got %T, want *ast.Tuple", e)
	}
	if len(tup.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(tup.Members))
	}
}

func TestParseSetLiteral(t *testing.T) {
	e := parseExprFromSrc(t, "{1, 2, 3}")
	set, ok := e.(*ast.Set)
	if !ok {
		t.Fatalf("got %T, want *ast.Set", e)
	}
	if len(set.Members) != 3 {
		t.Errorf("got %d members, want 3", len(set.Members))
	}
}

func TestParseSetLiteralEmpty(t *testing.T) {
	e := parseExprFromSrc(t, "{}")
	set, ok := e.(*ast.Set)
	if !ok {
		t.Fatalf("got %T, want *ast.Set", e)
	}
	if len(set.Members) != 0 {
		t.Errorf("got %d members, want 0", len(set.Members))
	}
}

func TestParsePrimitives(t *testing.T) {
	for _, src := range []string{"TRUE", "FALSE", "LOW", "HIGH"} {
		e := parseExprFromSrc(t, src)
		if _, ok := e.(*ast.Primitive); !ok {
			t.Errorf("%q: got %T, want *ast.Primitive", src, e)
		}
	}
}

func TestParseBitSpecClauseVsLessThan(t *testing.T) {
	withBits := parseExprFromSrc(t, "X<7:0>")
	args, ok := withBits.(*ast.Arguments)
	if !ok || args.Kind != "<>" {
		t.Fatalf("X<7:0> got %#v, want Arguments Kind <>", withBits)
	}
	if len(args.Ranges) != 1 || args.Ranges[0].String() != "7:0" {
		t.Errorf("Ranges = %+v, want one 7:0 range", args.Ranges)
	}

	lessThan := parseExprFromSrc(t, "X < Y")
	bin, ok := lessThan.(*ast.Binary)
	if !ok || bin.Op != "<" {
		t.Fatalf("X < Y got %#v, want Binary <", lessThan)
	}
}

func TestParseBitSpecPlusColon(t *testing.T) {
	e := parseExprFromSrc(t, "X<0+:8>")
	args, ok := e.(*ast.Arguments)
	if !ok || args.Kind != "<>" {
		t.Fatalf("got %#v, want Arguments Kind <>", e)
	}
	if !args.Ranges[0].Plus {
		t.Error("expected Plus == true")
	}
}

func TestParseCall(t *testing.T) {
	e := parseExprFromSrc(t, "Foo(1, 2)")
	call, ok := e.(*ast.Arguments)
	if !ok || call.Kind != "()" {
		t.Fatalf("got %#v, want Arguments Kind ()", e)
	}
	if len(call.Args) != 2 {
		t.Errorf("got %d args, want 2", len(call.Args))
	}
}

func TestParseIndexing(t *testing.T) {
	e := parseExprFromSrc(t, "Mem[addr]")
	idx, ok := e.(*ast.Arguments)
	if !ok || idx.Kind != "[]" {
		t.Fatalf("got %#v, want Arguments Kind []", e)
	}
}

func TestParseQualifiedChain(t *testing.T) {
	e := parseExprFromSrc(t, "PSTATE.N")
	q, ok := e.(*ast.QualifiedIdentifier)
	if !ok {
		t.Fatalf("got %T, want *ast.QualifiedIdentifier", e)
	}
	if q.String() != "PSTATE.N" {
		t.Errorf("String() = %q, want %q", q.String(), "PSTATE.N")
	}
}

func TestParseBitsFieldSuffix(t *testing.T) {
	e := parseExprFromSrc(t, "PSTATE.<N,Z>")
	bits, ok := e.(*ast.Bits)
	if !ok {
		t.Fatalf("got %T, want *ast.Bits", e)
	}
	if bits.String() != "PSTATE.<N, Z>" {
		t.Errorf("String() = %q, want %q", bits.String(), "PSTATE.<N, Z>")
	}
}

func TestParseBareBitsList(t *testing.T) {
	e := parseExprFromSrc(t, "<N,Z>")
	bits, ok := e.(*ast.Bits)
	if !ok {
		t.Fatalf("got %T, want *ast.Bits", e)
	}
	if bits.Base != nil {
		t.Error("bare bits list should have a nil Base")
	}
}

func TestParseOmittedPlaceholder(t *testing.T) {
	s := newTestStream(t, "-")
	e, err := ParseAssignable(s)
	if err != nil {
		t.Fatalf("ParseAssignable(%q): %v", "-", err)
	}
	if _, ok := e.(*ast.Omitted); !ok {
		t.Fatalf("got %T, want *ast.Omitted", e)
	}
}

func TestParseAssignableTuple(t *testing.T) {
	s := newTestStream(t, "(X, -)")
	a, err := ParseAssignable(s)
	if err != nil {
		t.Fatalf("ParseAssignable: %v", err)
	}
	tup, ok := a.(*ast.Tuple)
	if !ok || len(tup.Members) != 2 {
		t.Fatalf("got %#v, want a 2-member Tuple", a)
	}
	if _, ok := tup.Members[1].(*ast.Omitted); !ok {
		t.Errorf("second member = %T, want *ast.Omitted", tup.Members[1])
	}
}

func TestParseTypePrefixedUnknown(t *testing.T) {
	e := parseExprFromSrc(t, "integer UNKNOWN")
	u, ok := e.(*ast.Unknown)
	if !ok {
		t.Fatalf("got %T, want *ast.Unknown", e)
	}
	if u.Type.String() != "integer" {
		t.Errorf("Type = %q, want integer", u.Type.String())
	}
}

func TestParseTypePrefixedImplementationDefined(t *testing.T) {
	e := parseExprFromSrc(t, `integer IMPLEMENTATION_DEFINED "rounding"`)
	id, ok := e.(*ast.ImplementationDefined)
	if !ok {
		t.Fatalf("got %T, want *ast.ImplementationDefined", e)
	}
	if id.Aspect != "rounding" {
		t.Errorf("Aspect = %q, want rounding", id.Aspect)
	}
}
