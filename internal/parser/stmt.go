package parser

import (
	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/pkg/token"
)

// ParseProgram parses a full statement-body fragment and asserts the stream
// is entirely consumed with no outstanding forks (spec.md §4.2's parse-
// completion invariant) — the entry point internal/xmldriver calls for a
// fragment classified as a statement block.
func ParseProgram(s *Stream) ([]ast.Stmt, *ParseError) {
	body, err := ParseBody(s)
	if err != nil {
		return nil, err
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}
	return body, nil
}

// ParseBody parses statements from s until it is exhausted, skipping stray
// separator newlines between them.
func ParseBody(s *Stream) ([]ast.Stmt, *ParseError) {
	var stmts []ast.Stmt
	for {
		skipNewlines(s)
		if s.AtEnd() {
			break
		}
		stmt, err := ParseStatement(s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func skipNewlines(s *Stream) {
	for {
		tok, ok := s.MaybePeek()
		if !ok || tok.Kind != token.NEWLINE {
			return
		}
		s.ConsumeToken()
	}
}

// parseBodyOrSingle implements spec.md §4.5's "a body accepts either a
// single statement (same line) or a nested block".
func parseBodyOrSingle(s *Stream) ([]ast.Stmt, *ParseError) {
	skipNewlines(s)
	if it, ok := s.MaybePeekItem(); ok {
		if b, isBlock := token.AsBlock(it); isBlock {
			s.Consume()
			return ParseBody(EnterBlock(b))
		}
	}
	stmt, err := ParseStatement(s)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{stmt}, nil
}

// consumeStmtEnd consumes the mandatory terminating `;` and an optional
// following newline.
func consumeStmtEnd(s *Stream) *ParseError {
	if _, err := s.ConsumeAssert(token.SEMI); err != nil {
		return err
	}
	s.ConsumeIf(token.NEWLINE)
	return nil
}

// ParseStatement parses exactly one statement (spec.md §4.5), dispatching
// on the leading keyword.
func ParseStatement(s *Stream) (ast.Stmt, *ParseError) {
	tok, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.IF:
		return parseIfStmt(s)
	case token.FOR:
		return parseForStmt(s)
	case token.WHILE:
		return parseWhileStmt(s)
	case token.REPEAT:
		return parseRepeatStmt(s)
	case token.CASE:
		return parseCaseStmt(s)
	case token.SEE:
		return parseSeeStmt(s)
	case token.UNDEFINED:
		s.ConsumeToken()
		if err := consumeStmtEnd(s); err != nil {
			return nil, err
		}
		return ast.NewUndefined(tok.Pos), nil
	case token.UNPREDICTABLE:
		s.ConsumeToken()
		if err := consumeStmtEnd(s); err != nil {
			return nil, err
		}
		return ast.NewUnpredictable(tok.Pos), nil
	case token.IMPLEMENTATION_DEFINED:
		return parseImplementationDefinedStmt(s)
	case token.ASSERT:
		return parseAssertStmt(s)
	case token.RETURN:
		return parseReturnStmt(s)
	case token.CONSTANT:
		return parseConstantAssignmentStmt(s)
	case token.ENUMERATION:
		decl, err := ParseEnumerationDecl(s)
		if err != nil {
			return nil, err
		}
		return &ast.LocalDeclaration{Decl: decl}, nil
	default:
		return parseAssignmentOrCallOrDeclaration(s)
	}
}

func parseIfStmt(s *Stream) (ast.Stmt, *ParseError) {
	ifTok, _ := s.ConsumeToken()
	return parseIfTailStmt(s, ifTok.Pos)
}

// parseIfTailStmt parses the COND-then-body(-elsif...)-else-body tail
// shared by `if` and `elsif`. Chained elsifs flatten into a nested If tree
// carried in Else; an absent else produces an empty body.
func parseIfTailStmt(s *Stream, pos token.Position) (ast.Stmt, *ParseError) {
	cond, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if _, aerr := s.ConsumeAssert(token.THEN); aerr != nil {
		return nil, aerr
	}
	then, err := parseBodyOrSingle(s)
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Stmt
	tok, ok := s.MaybePeek()
	switch {
	case ok && tok.Kind == token.ELSIF:
		elsifTok, _ := s.ConsumeToken()
		elseStmt, err := parseIfTailStmt(s, elsifTok.Pos)
		if err != nil {
			return nil, err
		}
		elseBody = []ast.Stmt{elseStmt}
	case ok && tok.Kind == token.ELSE:
		s.ConsumeToken()
		var err2 *ParseError
		elseBody, err2 = parseBodyOrSingle(s)
		if err2 != nil {
			return nil, err2
		}
	}
	return ast.NewIf(pos, cond, then, elseBody), nil
}

func parseForStmt(s *Stream) (ast.Stmt, *ParseError) {
	forTok, _ := s.ConsumeToken()
	nameTok, err := s.ConsumeAssert(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.EQ); err != nil {
		return nil, err
	}
	start, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	downto := false
	if _, ok := s.ConsumeIf(token.TO); !ok {
		if _, ok2 := s.ConsumeIf(token.DOWNTO); ok2 {
			downto = true
		} else {
			return nil, s.parseError("expected 'to' or 'downto'")
		}
	}
	stop, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	body, err := parseBodyOrSingle(s)
	if err != nil {
		return nil, err
	}
	return ast.NewFor(forTok.Pos, nameTok.Lit, start, stop, downto, body), nil
}

func parseWhileStmt(s *Stream) (ast.Stmt, *ParseError) {
	s.ConsumeToken()
	cond, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.DO); err != nil {
		return nil, err
	}
	body, err := parseBodyOrSingle(s)
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body}, nil
}

// parseRepeatStmt implements "repeat always wraps an indented block"
// (spec.md §4.5).
func parseRepeatStmt(s *Stream) (ast.Stmt, *ParseError) {
	repeatTok, _ := s.ConsumeToken()
	it, ok := s.MaybePeekItem()
	if !ok {
		return nil, s.parseError("expected a block after 'repeat'")
	}
	b, isBlock := token.AsBlock(it)
	if !isBlock {
		return nil, s.parseError("expected an indented block after 'repeat'")
	}
	s.Consume()
	body, err := ParseBody(EnterBlock(b))
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.UNTIL); err != nil {
		return nil, err
	}
	cond, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return ast.NewRepeat(repeatTok.Pos, body, cond), nil
}

func parseCaseStmt(s *Stream) (ast.Stmt, *ParseError) {
	s.ConsumeToken()
	expr, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.OF); err != nil {
		return nil, err
	}
	it, ok := s.MaybePeekItem()
	if !ok {
		return nil, s.parseError("expected an indented block after 'case ... of'")
	}
	b, isBlock := token.AsBlock(it)
	if !isBlock {
		return nil, s.parseError("expected an indented block after 'case ... of'")
	}
	s.Consume()
	clauses, err := parseCaseClauses(EnterBlock(b))
	if err != nil {
		return nil, err
	}
	return &ast.Case{Expr: expr, Clauses: clauses}, nil
}

// parseCaseClauses implements spec.md §4.5: each clause is `when pat,…` or
// `otherwise`, and `otherwise` must be last.
func parseCaseClauses(s *Stream) ([]ast.CaseClause, *ParseError) {
	var clauses []ast.CaseClause
	sawOtherwise := false
	for {
		skipNewlines(s)
		if s.AtEnd() {
			break
		}
		if sawOtherwise {
			return nil, s.parseError("'otherwise' must be the last case clause")
		}
		tok, err := s.Peek()
		if err != nil {
			return nil, err
		}
		var clause ast.CaseClause
		switch tok.Kind {
		case token.WHEN:
			s.ConsumeToken()
			var patterns []ast.Expr
			for {
				p, err := parseCasePattern(s)
				if err != nil {
					return nil, err
				}
				patterns = append(patterns, p)
				if _, ok := s.ConsumeIf(token.COMMA); ok {
					continue
				}
				break
			}
			clause.Patterns = patterns
		case token.OTHERWISE:
			s.ConsumeToken()
			sawOtherwise = true
		default:
			return nil, s.parseError("expected 'when' or 'otherwise'")
		}
		body, err := parseCaseClauseBody(s)
		if err != nil {
			return nil, err
		}
		clause.Body = body
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

// parseCaseClauseBody implements spec.md §4.5's case-clause body rule: a
// nested indented block, or one or more `;`-terminated statements on the
// same line — a `;` ends the clause only when a newline immediately
// follows it, so the clause keeps consuming statements until the next
// `when`/`otherwise` or the enclosing block is exhausted.
func parseCaseClauseBody(s *Stream) ([]ast.Stmt, *ParseError) {
	skipNewlines(s)
	if it, ok := s.MaybePeekItem(); ok {
		if b, isBlock := token.AsBlock(it); isBlock {
			s.Consume()
			return ParseBody(EnterBlock(b))
		}
	}
	var stmts []ast.Stmt
	for {
		stmt, err := ParseStatement(s)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		tok, ok := s.MaybePeek()
		if !ok || tok.Kind == token.WHEN || tok.Kind == token.OTHERWISE {
			return stmts, nil
		}
	}
}

// parseCasePattern implements "patterns are identifiers, numbers, hex
// numbers, or bitvectors" (spec.md §4.5).
func parseCasePattern(s *Stream) (ast.Expr, *ParseError) {
	tok, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.IDENT, token.LINKED_IDENT:
		s.ConsumeToken()
		return &ast.Identifier{Token: tok, Name: tok.Lit}, nil
	case token.NUMBER, token.HEX_NUMBER, token.BITVECTOR:
		s.ConsumeToken()
		return &ast.Numeric{Token: tok}, nil
	default:
		return nil, s.parseError("expected a case pattern")
	}
}

// parseSeeStmt handles both `SEE "str";` and `SEE(name);` — the two forms
// internal/lexer's ProcessA already distinguishes at the token level.
func parseSeeStmt(s *Stream) (ast.Stmt, *ParseError) {
	seeTok, _ := s.ConsumeToken()
	if tok, ok := s.MaybePeek(); ok && tok.Kind == token.STRING {
		s.ConsumeToken()
		if err := consumeStmtEnd(s); err != nil {
			return nil, err
		}
		return ast.NewSee(seeTok.Pos, tok.Lit), nil
	}
	if _, err := s.ConsumeAssert(token.LPAREN); err != nil {
		return nil, err
	}
	nameTok, err := s.ConsumeAssert(token.IDENT)
	if err != nil {
		return nil, err
	}
	name := nameTok.Lit
	for {
		if _, ok := s.ConsumeIf(token.DOT); !ok {
			break
		}
		seg, err := s.ConsumeAssert(token.IDENT)
		if err != nil {
			return nil, err
		}
		name += "." + seg.Lit
	}
	if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return ast.NewSeeIdentifier(seeTok.Pos, name), nil
}

func parseImplementationDefinedStmt(s *Stream) (ast.Stmt, *ParseError) {
	tok, _ := s.ConsumeToken()
	str := ""
	if strTok, ok := s.MaybePeek(); ok && strTok.Kind == token.STRING {
		s.ConsumeToken()
		str = strTok.Lit
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return ast.NewImplementationDefinedStmt(tok.Pos, str), nil
}

func parseAssertStmt(s *Stream) (ast.Stmt, *ParseError) {
	s.ConsumeToken()
	expr, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return &ast.Assert{Expr: expr}, nil
}

func parseReturnStmt(s *Stream) (ast.Stmt, *ParseError) {
	tok, _ := s.ConsumeToken()
	if t2, ok := s.MaybePeek(); ok && t2.Kind == token.SEMI {
		if err := consumeStmtEnd(s); err != nil {
			return nil, err
		}
		return ast.NewReturn(tok.Pos, nil), nil
	}
	expr, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return ast.NewReturn(tok.Pos, expr), nil
}

func parseConstantAssignmentStmt(s *Stream) (ast.Stmt, *ParseError) {
	s.ConsumeToken()
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	lhs, err := ParseAssignable(s)
	if err != nil {
		return nil, err
	}
	if _, aerr := s.ConsumeAssert(token.EQ); aerr != nil {
		return nil, aerr
	}
	rhs, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return &ast.ConstantAssignment{Type: t, Lhs: lhs, Rhs: rhs}, nil
}

// parseAssignmentOrCallOrDeclaration implements the fallthrough dispatch of
// spec.md §4.5: try a declaration via a fork; otherwise parse an
// assignable, then either a call or an `=` assignment.
func parseAssignmentOrCallOrDeclaration(s *Stream) (ast.Stmt, *ParseError) {
	child := s.Fork()
	if decl, ok := tryParseDeclarationStmt(child); ok {
		s.Become(child)
		return decl, nil
	}
	s.Abandon(child)

	lhs, err := ParseAssignable(s)
	if err != nil {
		return nil, err
	}
	if tok, ok := s.MaybePeek(); ok && tok.Kind == token.LPAREN {
		s.ConsumeToken()
		var args []ast.Expr
		if t2, ok := s.MaybePeek(); !ok || t2.Kind != token.RPAREN {
			for {
				a, err := ParseTernary(s)
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if _, ok := s.ConsumeIf(token.COMMA); ok {
					continue
				}
				break
			}
		}
		if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
			return nil, err
		}
		if err := consumeStmtEnd(s); err != nil {
			return nil, err
		}
		return &ast.Call{Func: lhs, Args: args}, nil
	}
	if _, err := s.ConsumeAssert(token.EQ); err != nil {
		return nil, err
	}
	rhs, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	if err := consumeStmtEnd(s); err != nil {
		return nil, err
	}
	return &ast.Assignment{Lhs: lhs, Rhs: rhs}, nil
}

// tryParseDeclarationStmt parses `TYPE name(=init)? (, name(=init)?)* ;`
// entirely within the forked stream s, returning ok==false on any failure
// so the caller can fall back to assignable parsing.
func tryParseDeclarationStmt(s *Stream) (ast.Stmt, bool) {
	t, perr := ParseType(s)
	if perr != nil {
		return nil, false
	}
	var vars []ast.DeclVar
	for {
		nameExpr, perr := parseDeclName(s)
		if perr != nil {
			return nil, false
		}
		var init ast.Expr
		if _, ok := s.ConsumeIf(token.EQ); ok {
			e, perr := ParseTernary(s)
			if perr != nil {
				return nil, false
			}
			init = e
		}
		vars = append(vars, ast.DeclVar{Name: nameExpr, Init: init})
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, ok := s.ConsumeIf(token.SEMI); !ok {
		return nil, false
	}
	s.ConsumeIf(token.NEWLINE)
	return &ast.Declaration{Type: t, Vars: vars}, true
}

// parseDeclName parses a plain `name` or dotted `name.name…` declaration
// target — never an indexed or bit-spec'd expression.
func parseDeclName(s *Stream) (ast.Expr, *ParseError) {
	tok, err := s.ConsumeAssert(token.IDENT)
	if err != nil {
		return nil, err
	}
	var result ast.Expr = &ast.Identifier{Token: tok, Name: tok.Lit}
	for {
		if _, ok := s.ConsumeIf(token.DOT); ok {
			nameTok, err := s.ConsumeAssert(token.IDENT)
			if err != nil {
				return nil, err
			}
			result = ast.NewQualifiedIdentifier(result, nameTok.Lit)
			continue
		}
		break
	}
	return result, nil
}
