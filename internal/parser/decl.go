package parser

import (
	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/pkg/token"
)

// ParseDeclarations parses the shared-pseudocode file's top-level
// declaration list (spec.md §4.6) and asserts the stream is fully consumed
// with no outstanding forks.
func ParseDeclarations(s *Stream) ([]ast.Decl, *ParseError) {
	var decls []ast.Decl
	for {
		skipNewlines(s)
		if s.AtEnd() {
			break
		}
		d, err := ParseDeclaration(s)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if err := s.Finish(); err != nil {
		return nil, err
	}
	return decls, nil
}

// ParseDeclaration parses one top-level declaration.
func ParseDeclaration(s *Stream) (ast.Decl, *ParseError) {
	tok, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Kind == token.CONSTANT:
		return parseConstantDecl(s)
	case tok.Kind == token.ENUMERATION:
		return ParseEnumerationDecl(s)
	case tok.Kind == token.ARRAY:
		return parseArrayDecl(s)
	case tok.Kind == token.IDENT && token.IsTypeKeyword(tok.Lit):
		return parseTypeDecl(s)
	default:
		return parseFunctionLikeDecl(s)
	}
}

// parseConstantDecl parses `constant TYPE NAME = EXPR (, NAME = EXPR)* ;`.
func parseConstantDecl(s *Stream) (ast.Decl, *ParseError) {
	tok, _ := s.ConsumeToken()
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	var vars []ast.DeclVar
	for {
		nameExpr, err := parseDeclName(s)
		if err != nil {
			return nil, err
		}
		if _, aerr := s.ConsumeAssert(token.EQ); aerr != nil {
			return nil, aerr
		}
		init, err := ParseTernary(s)
		if err != nil {
			return nil, err
		}
		vars = append(vars, ast.DeclVar{Name: nameExpr, Init: init})
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.SEMI); err != nil {
		return nil, err
	}
	s.ConsumeIf(token.NEWLINE)
	return ast.NewVariable(tok.Pos, true, t, vars), nil
}

// ParseEnumerationDecl parses `enumeration NAME { v, v, … } ;`, exported so
// the statement parser can reach it for the LocalDeclaration form.
func ParseEnumerationDecl(s *Stream) (*ast.Enumeration, *ParseError) {
	tok, _ := s.ConsumeToken()
	nameTok, err := s.ConsumeAssert(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.LBRACE); err != nil {
		return nil, err
	}
	var values []string
	for {
		vTok, err := s.ConsumeAssert(token.IDENT)
		if err != nil {
			return nil, err
		}
		values = append(values, vTok.Lit)
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.RBRACE); err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.SEMI); err != nil {
		return nil, err
	}
	s.ConsumeIf(token.NEWLINE)
	return ast.NewEnumeration(tok.Pos, nameTok.Lit, values), nil
}

// parseTypeDecl parses the three `type` productions (spec.md §4.6): opaque
// `type NAME;`, alias `type NAME = TYPE;`, or struct `type NAME is (…);`.
// The leading `type` keyword is lex-classified as IDENT (spec.md §9).
func parseTypeDecl(s *Stream) (ast.Decl, *ParseError) {
	typeTok, _ := s.ConsumeIfLit(token.IDENT, "type")
	nameChain, _, err := parseNameChain(s)
	if err != nil {
		return nil, err
	}
	if _, ok := s.ConsumeIf(token.SEMI); ok {
		s.ConsumeIf(token.NEWLINE)
		return ast.NewTypeDecl(typeTok.Pos, nameChain, nil), nil
	}
	if _, ok := s.ConsumeIf(token.EQ); ok {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		if _, err := s.ConsumeAssert(token.SEMI); err != nil {
			return nil, err
		}
		s.ConsumeIf(token.NEWLINE)
		return ast.NewTypeEquals(typeTok.Pos, nameChain, t), nil
	}
	if _, err := s.ConsumeAssert(token.IS); err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.LPAREN); err != nil {
		return nil, err
	}
	var fields []ast.TypeField
	for {
		ft, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		nameTok, err := s.ConsumeAssert(token.IDENT)
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.TypeField{Type: ft, Name: nameTok.Lit})
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.SEMI); err != nil {
		return nil, err
	}
	s.ConsumeIf(token.NEWLINE)
	return ast.NewTypeDecl(typeTok.Pos, nameChain, fields), nil
}

// parseNameChain parses a plain dotted name chain of IDENT/LINKED_IDENT
// segments, stopping when no further '.' follows.
func parseNameChain(s *Stream) ([]string, token.Position, *ParseError) {
	first, err := s.ConsumeToken()
	if err != nil {
		return nil, token.Position{}, err
	}
	if first.Kind != token.IDENT && first.Kind != token.LINKED_IDENT {
		return nil, token.Position{}, s.parseError("expected a name")
	}
	chain := []string{first.Lit}
	for {
		if _, ok := s.ConsumeIf(token.DOT); ok {
			nt, err := s.ConsumeToken()
			if err != nil {
				return nil, token.Position{}, err
			}
			if nt.Kind != token.IDENT && nt.Kind != token.LINKED_IDENT {
				return nil, token.Position{}, s.parseError("expected a name segment")
			}
			chain = append(chain, nt.Lit)
			continue
		}
		break
	}
	return chain, first.Pos, nil
}

// parseArrayDecl parses `array TYPE NAME [ E .. E ] ;`.
func parseArrayDecl(s *Stream) (ast.Decl, *ParseError) {
	tok, _ := s.ConsumeToken()
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	chain, _, err := parseNameChain(s)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.LBRACKET); err != nil {
		return nil, err
	}
	lo, err := ParseBinary(s, 0)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.DOTDOT); err != nil {
		return nil, err
	}
	hi, err := ParseBinary(s, 0)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.RBRACKET); err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.SEMI); err != nil {
		return nil, err
	}
	s.ConsumeIf(token.NEWLINE)
	return ast.NewArray(tok.Pos, t, chain, lo, hi), nil
}

// parseDeclNameChain parses the function-like form's name chain (spec.md
// §4.6): plain IDENT segments terminated by a DECLARATION_IDENT (not
// overloaded) or a LINKED_IDENT (overloaded).
func parseDeclNameChain(s *Stream) ([]string, bool, token.Position, *ParseError) {
	first, err := s.ConsumeToken()
	if err != nil {
		return nil, false, token.Position{}, err
	}
	pos := first.Pos
	switch first.Kind {
	case token.DECLARATION_IDENT:
		return []string{first.Lit}, false, pos, nil
	case token.LINKED_IDENT:
		return []string{first.Lit}, true, pos, nil
	case token.IDENT:
		// fall through to the dotted-chain loop below
	default:
		return nil, false, pos, s.parseError("expected a declaration name")
	}
	chain := []string{first.Lit}
	for {
		if _, ok := s.ConsumeIf(token.DOT); !ok {
			return nil, false, pos, s.parseError("expected a terminal declaration or linked identifier")
		}
		next, err := s.ConsumeToken()
		if err != nil {
			return nil, false, pos, err
		}
		switch next.Kind {
		case token.IDENT:
			chain = append(chain, next.Lit)
		case token.DECLARATION_IDENT:
			chain = append(chain, next.Lit)
			return chain, false, pos, nil
		case token.LINKED_IDENT:
			chain = append(chain, next.Lit)
			return chain, true, pos, nil
		default:
			return nil, false, pos, s.parseError("expected a name segment")
		}
	}
}

// parseFunctionLikeDecl parses spec.md §4.6's function-like form: an
// optional result type (resolved via a speculative fork; absent ⇒ void),
// a name chain, then a parameter form that distinguishes FUNCTION, GETTER
// and SETTER, followed by a `;` or nested-block body.
func parseFunctionLikeDecl(s *Stream) (ast.Decl, *ParseError) {
	var resultType ast.Type
	child := s.Fork()
	if t, perr := ParseType(child); perr == nil {
		if tok, ok := child.MaybePeek(); ok &&
			(tok.Kind == token.IDENT || tok.Kind == token.LINKED_IDENT || tok.Kind == token.DECLARATION_IDENT) {
			s.Become(child)
			resultType = t
		} else {
			s.Abandon(child)
		}
	} else {
		s.Abandon(child)
	}

	nameChain, overload, namePos, err := parseDeclNameChain(s)
	if err != nil {
		return nil, err
	}

	pos := namePos
	void := resultType == nil
	if !void {
		pos = resultType.Pos()
	} else {
		resultType = ast.NewVoidType(namePos)
	}

	if tok, ok := s.MaybePeek(); ok && tok.Kind == token.LPAREN {
		s.ConsumeToken()
		params, err := parseParamList(s, token.RPAREN)
		if err != nil {
			return nil, err
		}
		if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := parseFuncBody(s)
		if err != nil {
			return nil, err
		}
		return ast.NewFunction(pos, ast.FUNCTION, resultType, "", nameChain, overload, params, body), nil
	}

	if tok, ok := s.MaybePeek(); ok && tok.Kind == token.LBRACKET {
		s.ConsumeToken()
		params, err := parseParamList(s, token.RBRACKET)
		if err != nil {
			return nil, err
		}
		if _, err := s.ConsumeAssert(token.RBRACKET); err != nil {
			return nil, err
		}
		if void {
			return parseSetterTail(s, pos, nameChain, overload, params)
		}
		body, err := parseFuncBody(s)
		if err != nil {
			return nil, err
		}
		return ast.NewFunction(pos, ast.GETTER, resultType, "", nameChain, overload, params, body), nil
	}

	if void {
		return parseSetterTail(s, pos, nameChain, overload, nil)
	}
	body, err := parseFuncBody(s)
	if err != nil {
		return nil, err
	}
	return ast.NewFunction(pos, ast.GETTER, resultType, "", nameChain, overload, nil, body), nil
}

// parseSetterTail parses a SETTER's `= TYPE NAME` result clause and body,
// shared by the bracketed and bracket-less void forms.
func parseSetterTail(s *Stream, pos token.Position, nameChain []string, overload bool, params []ast.Param) (ast.Decl, *ParseError) {
	if _, err := s.ConsumeAssert(token.EQ); err != nil {
		return nil, err
	}
	t, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	nameTok, err := s.ConsumeAssert(token.IDENT)
	if err != nil {
		return nil, err
	}
	body, err := parseFuncBody(s)
	if err != nil {
		return nil, err
	}
	return ast.NewFunction(pos, ast.SETTER, t, nameTok.Lit, nameChain, overload, params, body), nil
}

// parseParamList parses a comma list of `TYPE [&] IDENT` parameters, or
// none if closeKind is seen immediately.
func parseParamList(s *Stream, closeKind token.Kind) ([]ast.Param, *ParseError) {
	if tok, ok := s.MaybePeek(); ok && tok.Kind == closeKind {
		return nil, nil
	}
	var params []ast.Param
	for {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		byRef := false
		if _, ok := s.ConsumeIf(token.AMP); ok {
			byRef = true
		}
		nameTok, err := s.ConsumeAssert(token.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Type: t, Name: nameTok.Lit, ByRef: byRef})
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	return params, nil
}

// parseFuncBody implements "a body is either `;` (declaration only) or a
// nested block" (spec.md §4.6).
func parseFuncBody(s *Stream) ([]ast.Stmt, *ParseError) {
	if _, ok := s.ConsumeIf(token.SEMI); ok {
		s.ConsumeIf(token.NEWLINE)
		return nil, nil
	}
	it, ok := s.MaybePeekItem()
	if !ok {
		return nil, s.parseError("expected ';' or a function body block")
	}
	b, isBlock := token.AsBlock(it)
	if !isBlock {
		return nil, s.parseError("expected ';' or a function body block")
	}
	s.Consume()
	return ParseBody(EnterBlock(b))
}
