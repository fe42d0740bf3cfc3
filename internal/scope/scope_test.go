package scope

import (
	"testing"

	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/internal/namespace"
	"github.com/rlutz/aslfront/pkg/token"
)

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Token: token.NewLit(token.IDENT, name, token.Position{}), Name: name}
}

func num(lit string) *ast.Numeric {
	return &ast.Numeric{Token: token.NewLit(token.NUMBER, lit, token.Position{})}
}

func function(params []ast.Param, resultName string, body []ast.Stmt) *ast.Function {
	return ast.NewFunction(token.Position{}, ast.FUNCTION, ast.NewIntegerType(token.Position{}),
		resultName, []string{"F"}, false, params, body)
}

func TestResolveParameterInScope(t *testing.T) {
	fn := function([]ast.Param{{Type: ast.NewIntegerType(token.Position{}), Name: "x"}}, "",
		[]ast.Stmt{ast.NewReturn(token.Position{}, ident("x"))})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", diags)
	}
}

func TestResolveUndefinedIdentifier(t *testing.T) {
	fn := function(nil, "", []ast.Stmt{ast.NewReturn(token.Position{}, ident("y"))})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	if diags[0].Message != `undefined name "y"` {
		t.Errorf("Message = %q, want undefined name y", diags[0].Message)
	}
}

func TestResolveAssignmentPreDeclaresLHS(t *testing.T) {
	fn := function(nil, "", []ast.Stmt{
		&ast.Assignment{Lhs: ident("y"), Rhs: num("1")},
		ast.NewReturn(token.Position{}, ident("y")),
	})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", diags)
	}
}

func TestResolveInvalidAssignmentTarget(t *testing.T) {
	fn := function(nil, "", []ast.Stmt{
		&ast.Assignment{Lhs: ast.NewSet(token.Position{}, nil), Rhs: num("1")},
	})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	if diags[0].Message == "" {
		t.Error("expected a non-empty message")
	}
}

func TestResolveGlobalNameResolves(t *testing.T) {
	ns := namespace.New()
	v := ast.NewVariable(token.Position{}, false, ast.NewIntegerType(token.Position{}), []ast.DeclVar{
		{Name: ident("Foo")},
	})
	if err := ns.Ingest(v); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	fn := function(nil, "", []ast.Stmt{ast.NewReturn(token.Position{}, ident("Foo"))})
	diags := Resolve(ns, fn)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", diags)
	}
}

func TestResolveImplicitNameResolves(t *testing.T) {
	fn := function(nil, "", []ast.Stmt{ast.NewReturn(token.Position{}, ident("FPCR"))})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics for implicit name: %+v", diags)
	}
}

func TestResolveRecursesIntoIf(t *testing.T) {
	fn := function([]ast.Param{{Type: ast.NewIntegerType(token.Position{}), Name: "x"}}, "",
		[]ast.Stmt{
			ast.NewIf(token.Position{}, ident("x"),
				[]ast.Stmt{ast.NewReturn(token.Position{}, ident("x"))},
				[]ast.Stmt{ast.NewReturn(token.Position{}, ident("undeclared"))},
			),
		})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1: %+v", len(diags), diags)
	}
	if diags[0].Message != `undefined name "undeclared"` {
		t.Errorf("Message = %q, want undefined name undeclared", diags[0].Message)
	}
}

func TestResolveNilBodyProducesNoDiagnostics(t *testing.T) {
	fn := function(nil, "", nil)
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics for a declaration-only function: %+v", diags)
	}
}

func TestResolveResultNameInScope(t *testing.T) {
	fn := function(nil, "result", []ast.Stmt{
		&ast.Assignment{Lhs: ident("result"), Rhs: num("1")},
	})
	diags := Resolve(namespace.New(), fn)
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", diags)
	}
}
