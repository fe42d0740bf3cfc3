// Package scope implements the per-function local-scope resolver
// (spec.md §4.8): it seeds a local-name dictionary from templating
// parameters, result/parameter names and a body pre-pass, then verifies
// every identifier use resolves to local, global or implicit.
package scope

import (
	"fmt"

	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/internal/namespace"
	"github.com/rlutz/aslfront/pkg/token"
)

// Diagnostic is one unresolved-name or invalid-assignment-target report.
// Diagnostics are never fatal (spec.md §4.8 step 4).
type Diagnostic struct {
	Pos     token.Position
	Message string
}

// Scope holds the local-name set for one function body and accumulates
// diagnostics as it walks the body.
type Scope struct {
	ns    *namespace.Namespace
	fn    *ast.Function
	local map[string]bool
	diags []Diagnostic
}

// Resolve builds the local scope for fn against ns, walks its body, and
// returns the diagnostics produced. A nil-bodied declaration (no Body)
// produces no diagnostics.
func Resolve(ns *namespace.Namespace, fn *ast.Function) []Diagnostic {
	s := &Scope{ns: ns, fn: fn, local: make(map[string]bool)}
	s.seed()
	if fn.Body != nil {
		s.crawlBody(fn.Body)
		s.walkBody(fn.Body)
	}
	return s.diags
}

func (s *Scope) report(pos token.Position, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------- seeding

func collectTemplateNames(e ast.Expr, out map[string]bool) {
	switch v := e.(type) {
	case *ast.Identifier:
		out[v.Name] = true
	case *ast.Binary:
		collectTemplateNames(v.Lhs, out)
		collectTemplateNames(v.Rhs, out)
	case *ast.Unary:
		collectTemplateNames(v.Arg, out)
	}
}

func collectTemplateParamsFromType(t ast.Type, out map[string]bool) {
	switch v := t.(type) {
	case *ast.BitsType:
		collectTemplateNames(v.Expr, out)
	case *ast.ArrayType:
		collectTemplateParamsFromType(v.Base, out)
	case *ast.TupleType:
		for _, p := range v.Parts {
			collectTemplateParamsFromType(p, out)
		}
	}
}

// seed implements spec.md §4.8 steps 1–2.
func (s *Scope) seed() {
	if s.fn.ResultType != nil {
		collectTemplateParamsFromType(s.fn.ResultType, s.local)
	}
	for _, p := range s.fn.Parameters {
		collectTemplateParamsFromType(p.Type, s.local)
	}
	if s.fn.ResultName != "" {
		s.local[s.fn.ResultName] = true
	}
	for _, p := range s.fn.Parameters {
		s.local[p.Name] = true
	}
}

// ---------------------------------------------------------------- pre-pass

// resolvesGlobally reports whether name is already resolvable without
// adding it to local — i.e. a real or implicit namespace entry.
func (s *Scope) resolvesGlobally(name string) bool {
	_, err := s.ns.Lookup([]string{name})
	return err == nil
}

// crawlBody implements spec.md §4.8 step 3, recursing into every nested
// body (if/for/while/repeat/case), mirroring scope.py's crawl_body/
// crawl_statement.
func (s *Scope) crawlBody(body []ast.Stmt) {
	for _, stmt := range body {
		s.crawlStmt(stmt)
	}
}

func (s *Scope) crawlStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.ConstantAssignment:
		if ident, ok := v.Lhs.(*ast.Identifier); ok {
			s.local[ident.Name] = true
		}
	case *ast.Declaration:
		for _, dv := range v.Vars {
			if ident, ok := dv.Name.(*ast.Identifier); ok {
				s.local[ident.Name] = true
			}
		}
	case *ast.LocalDeclaration:
		if en, ok := v.Decl.(*ast.Enumeration); ok {
			for _, val := range en.Values {
				s.local[val] = true
			}
		}
	case *ast.Assignment:
		if ident, ok := v.Lhs.(*ast.Identifier); ok {
			if !s.local[ident.Name] && !s.resolvesGlobally(ident.Name) {
				s.local[ident.Name] = true
			}
		}
	case *ast.If:
		s.crawlBody(v.Then)
		s.crawlBody(v.Else)
	case *ast.For:
		s.local[v.Var] = true
		s.crawlBody(v.Body)
	case *ast.While:
		s.crawlBody(v.Body)
	case *ast.Repeat:
		s.crawlBody(v.Body)
	case *ast.Case:
		for _, c := range v.Clauses {
			s.crawlBody(c.Body)
		}
	}
}

// ---------------------------------------------------------------- walk

// walkBody implements spec.md §4.8 step 4.
func (s *Scope) walkBody(body []ast.Stmt) {
	for _, stmt := range body {
		s.walkStmt(stmt)
	}
}

func (s *Scope) walkStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.Assignment:
		s.checkLHS(v.Lhs)
		s.checkExpr(v.Rhs)
	case *ast.ConstantAssignment:
		s.checkLHS(v.Lhs)
		s.checkExpr(v.Rhs)
	case *ast.Declaration:
		for _, dv := range v.Vars {
			s.checkLHS(dv.Name)
			if dv.Init != nil {
				s.checkExpr(dv.Init)
			}
		}
	case *ast.Call:
		s.checkExpr(v.Func)
		for _, a := range v.Args {
			s.checkExpr(a)
		}
	case *ast.If:
		s.checkExpr(v.Cond)
		s.walkBody(v.Then)
		s.walkBody(v.Else)
	case *ast.For:
		s.checkExpr(v.Start)
		s.checkExpr(v.Stop)
		s.walkBody(v.Body)
	case *ast.While:
		s.checkExpr(v.Cond)
		s.walkBody(v.Body)
	case *ast.Repeat:
		s.walkBody(v.Body)
		s.checkExpr(v.Cond)
	case *ast.Case:
		s.checkExpr(v.Expr)
		for _, c := range v.Clauses {
			for _, p := range c.Patterns {
				s.checkExpr(p)
			}
			s.walkBody(c.Body)
		}
	case *ast.Assert:
		s.checkExpr(v.Expr)
	case *ast.Return:
		if v.Expr != nil {
			s.checkExpr(v.Expr)
		}
	}
}

// checkLHS implements the LHS validity rule from spec.md §4.8 step 4:
// Omitted is valid only here; the "pure expression" variants are a
// semantic error; anything else is checked as an ordinary identifier use.
func (s *Scope) checkLHS(e ast.Expr) {
	switch e.(type) {
	case *ast.Omitted:
		return
	case *ast.Set, *ast.Numeric, *ast.Unary, *ast.Binary, *ast.Ternary,
		*ast.Unknown, *ast.ImplementationDefined, *ast.Primitive:
		s.report(e.Pos(), "%T is not a valid assignment target", e)
		return
	}
	s.checkExpr(e)
}

// checkExpr verifies every Identifier use reachable from e resolves to
// local ∪ global ∪ implicit, recursing into sub-expressions. The tail
// segments of a QualifiedIdentifier chain are member names, not
// namespace references, so only the chain's innermost base is checked.
func (s *Scope) checkExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.Identifier:
		if !s.local[v.Name] && !s.resolvesGlobally(v.Name) {
			s.report(v.Pos(), "undefined name %q", v.Name)
		}
	case *ast.QualifiedIdentifier:
		s.checkExpr(v.Base)
	case *ast.Arguments:
		s.checkExpr(v.Func)
		for _, a := range v.Args {
			s.checkExpr(a)
		}
		for _, r := range v.Ranges {
			s.checkExpr(r.Low)
			if r.High != nil {
				s.checkExpr(r.High)
			}
		}
	case *ast.Set:
		for _, m := range v.Members {
			s.checkExpr(m)
		}
	case *ast.Unary:
		s.checkExpr(v.Arg)
	case *ast.Binary:
		s.checkExpr(v.Lhs)
		s.checkExpr(v.Rhs)
	case *ast.Ternary:
		s.checkExpr(v.Cond)
		s.checkExpr(v.Then)
		s.checkExpr(v.Else)
	case *ast.Bits:
		if v.Base != nil {
			s.checkExpr(v.Base)
		}
	case *ast.Tuple:
		for _, m := range v.Members {
			s.checkExpr(m)
		}
	case *ast.Numeric, *ast.Omitted, *ast.Primitive:
		// carry no identifier references
	case *ast.Unknown, *ast.ImplementationDefined:
		// type-prefixed forms carry no identifier references either
	}
}
