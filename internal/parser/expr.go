package parser

import (
	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/pkg/token"
)

// precedence is the binary-operator precedence-climbing table from
// spec.md §4.4, lowest to highest.
var precedence = map[token.Kind]int{
	token.PIPE_PIPE: 1,
	token.AMP_AMP:   2,
	token.IN:        3,
	token.OR:        4,
	token.EOR:       5,
	token.AND:       6,
	token.EQ_EQ:     7,
	token.BANG_EQ:   7,
	token.LT:        8,
	token.LE:        8,
	token.GT:        8,
	token.GE:        8,
	token.LT_LT:     9,
	token.GT_GT:     9,
	token.COLON:     9,
	token.PLUS:      10,
	token.MINUS:     10,
	token.STAR:      11,
	token.SLASH:     11,
	token.DIV:       11,
	token.MOD:       11,
	token.REM:       11,
	token.CARET:     12,
}

// bitSpecCutoff is the precedence level a bit-spec clause's restricted
// binary expressions must exceed, so that `<`/`>`/`<<`/`>>`/`:` are never
// mistaken for part of the clause (spec.md §4.4).
const bitSpecCutoff = 9

// ParseExpr parses a full ternary-layered expression, the entry point used
// by every caller outside this file.
func ParseExpr(s *Stream) (ast.Expr, *ParseError) { return ParseTernary(s) }

// ParseTernary parses `if COND then A elsif … else Z`, or falls through to
// ParseBinary when no leading `if` is present.
func ParseTernary(s *Stream) (ast.Expr, *ParseError) {
	tok, ok := s.MaybePeek()
	if !ok || tok.Kind != token.IF {
		return ParseBinary(s, 0)
	}
	s.ConsumeIf(token.IF)
	return parseIfTail(s, tok.Pos)
}

// parseIfTail parses the COND then A (elsif COND then A)* else Z tail
// shared by `if` and `elsif`; pos is the position of the leading keyword.
func parseIfTail(s *Stream, pos token.Position) (ast.Expr, *ParseError) {
	cond, err := ParseBinary(s, 0)
	if err != nil {
		return nil, err
	}
	if _, err := s.ConsumeAssert(token.THEN); err != nil {
		return nil, err
	}
	then, err := ParseBinary(s, 0)
	if err != nil {
		return nil, err
	}
	var elseExpr ast.Expr
	if next, ok := s.MaybePeek(); ok && next.Kind == token.ELSIF {
		elsifTok, _ := s.ConsumeToken()
		elseExpr, err = parseIfTail(s, elsifTok.Pos)
	} else {
		if _, aerr := s.ConsumeAssert(token.ELSE); aerr != nil {
			return nil, aerr
		}
		elseExpr, err = ParseTernary(s)
	}
	if err != nil {
		return nil, err
	}
	return ast.NewTernary(pos, cond, then, elseExpr), nil
}

// ParseBinary parses a left-associative binary-operator chain, refusing to
// consume any operator at precedence ≤ precLimit — the hook bit-spec
// parsing uses to treat `<`/`>`/`<<`/`>>`/`:` as delimiters instead of
// operators.
func ParseBinary(s *Stream, precLimit int) (ast.Expr, *ParseError) {
	left, err := ParseUnary(s)
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := s.MaybePeek()
		if !ok {
			break
		}
		prec, isOp := precedence[tok.Kind]
		if !isOp || prec <= precLimit {
			break
		}
		s.ConsumeToken()
		right, err := ParseBinary(s, prec)
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: tok.String(), Lhs: left, Rhs: right, Precedence: prec}
	}
	return left, nil
}

// ParseUnary parses a right-associative chain of prefix `!`, `-`, `NOT`.
func ParseUnary(s *Stream) (ast.Expr, *ParseError) {
	tok, ok := s.MaybePeek()
	if ok && (tok.Kind == token.BANG || tok.Kind == token.MINUS || tok.Kind == token.NOT) {
		s.ConsumeToken()
		arg, err := ParseUnary(s)
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(tok.Pos, tok.String(), arg), nil
	}
	return ParseOperand(s)
}

// ParseOperand parses one operand form (spec.md §4.4).
func ParseOperand(s *Stream) (ast.Expr, *ParseError) {
	tok, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.NUMBER, token.HEX_NUMBER:
		s.ConsumeToken()
		return maybeBitSpec(s, &ast.Numeric{Token: tok})
	case token.BITVECTOR:
		s.ConsumeToken()
		return &ast.Numeric{Token: tok}, nil
	case token.LPAREN:
		return parseParenOrTuple(s)
	case token.LBRACE:
		return parseSet(s)
	case token.FALSE, token.TRUE, token.LOW, token.HIGH:
		s.ConsumeToken()
		return &ast.Primitive{Token: tok}, nil
	}
	if expr, ok := tryTypePrefixed(s); ok {
		return expr, nil
	}
	return parseAssignableOperand(s)
}

// maybeBitSpec tries to attach a trailing bit-spec clause `<…>` to expr,
// forking to resolve the ambiguity between the clause and the
// less-than operator. On failure expr is returned unchanged and `<` is
// left for the caller to treat as an operator.
func maybeBitSpec(s *Stream, expr ast.Expr) (ast.Expr, *ParseError) {
	tok, ok := s.MaybePeek()
	if !ok || tok.Kind != token.LT {
		return expr, nil
	}
	child := s.Fork()
	ranges, ok2 := tryParseBitSpecClause(child)
	if !ok2 {
		s.Abandon(child)
		return expr, nil
	}
	s.Become(child)
	return &ast.Arguments{Func: expr, Kind: "<>", Ranges: ranges}, nil
}

func tryParseBitSpecClause(s *Stream) ([]ast.BitRange, bool) {
	if _, ok := s.ConsumeIf(token.LT); !ok {
		return nil, false
	}
	var ranges []ast.BitRange
	for {
		low, err := ParseBinary(s, bitSpecCutoff)
		if err != nil {
			return nil, false
		}
		r := ast.BitRange{Low: low}
		if _, ok := s.ConsumeIf(token.COLON); ok {
			high, err := ParseBinary(s, bitSpecCutoff)
			if err != nil {
				return nil, false
			}
			r.High = high
		} else if _, ok := s.ConsumeIf(token.PLUS_COLON); ok {
			high, err := ParseBinary(s, bitSpecCutoff)
			if err != nil {
				return nil, false
			}
			r.High = high
			r.Plus = true
		}
		ranges = append(ranges, r)
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, ok := s.ConsumeIf(token.GT); !ok {
		return nil, false
	}
	return ranges, true
}

// parseParenOrTuple parses `( EXPR , EXPR , … )`: a single member returns
// the inner expression unwrapped, ≥2 become Tuple. Either form may be
// followed by a bit-spec clause.
func parseParenOrTuple(s *Stream) (ast.Expr, *ParseError) {
	openTok, _ := s.ConsumeToken()
	var members []ast.Expr
	first, err := ParseTernary(s)
	if err != nil {
		return nil, err
	}
	members = append(members, first)
	for {
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			next, err := ParseTernary(s)
			if err != nil {
				return nil, err
			}
			members = append(members, next)
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
		return nil, err
	}
	var result ast.Expr
	if len(members) == 1 {
		result = members[0]
	} else {
		result = ast.NewTuple(openTok.Pos, members)
	}
	return maybeBitSpec(s, result)
}

func parseSet(s *Stream) (ast.Expr, *ParseError) {
	openTok, _ := s.ConsumeToken()
	var members []ast.Expr
	if tok, ok := s.MaybePeek(); !ok || tok.Kind != token.RBRACE {
		for {
			m, err := ParseBinary(s, 0)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
			if _, ok := s.ConsumeIf(token.COMMA); ok {
				continue
			}
			break
		}
	}
	if _, err := s.ConsumeAssert(token.RBRACE); err != nil {
		return nil, err
	}
	return ast.NewSet(openTok.Pos, members), nil
}

// tryTypePrefixed attempts `TYPE UNKNOWN` or `TYPE IMPLEMENTATION_DEFINED
// ["aspect"]` via a speculative fork on the type parser, rolling back on
// any failure so the caller can try an assignable instead.
func tryTypePrefixed(s *Stream) (ast.Expr, bool) {
	child := s.Fork()
	t, perr := ParseType(child)
	if perr != nil {
		s.Abandon(child)
		return nil, false
	}
	tok, ok := child.MaybePeek()
	if !ok {
		s.Abandon(child)
		return nil, false
	}
	switch tok.Kind {
	case token.UNKNOWN:
		child.ConsumeIf(token.UNKNOWN)
		s.Become(child)
		return ast.NewUnknown(t.Pos(), t), true
	case token.IMPLEMENTATION_DEFINED:
		child.ConsumeIf(token.IMPLEMENTATION_DEFINED)
		aspect := ""
		if strTok, ok := child.MaybePeek(); ok && strTok.Kind == token.STRING {
			child.ConsumeIf(token.STRING)
			aspect = strTok.Lit
		}
		s.Become(child)
		return ast.NewImplementationDefined(t.Pos(), t, aspect), true
	default:
		s.Abandon(child)
		return nil, false
	}
}

// parseAssignableOperand parses an assignable, optionally followed by a
// call `(args)` and/or a bit-spec clause.
func parseAssignableOperand(s *Stream) (ast.Expr, *ParseError) {
	assignable, err := ParseAssignable(s)
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
		assignable = &ast.Arguments{Func: assignable, Kind: "()", Args: args}
	}
	return maybeBitSpec(s, assignable)
}

// ParseAssignable parses spec.md §4.4's assignable grammar: an identifier
// followed by any mix of `[args]` indexing and `.` qualification; a final
// `.<name,…>` qualifies sibling bit fields; a bare `<ident,…>`; a
// parenthesised comma list of assignables; or the placeholder `-`.
func ParseAssignable(s *Stream) (ast.Expr, *ParseError) {
	tok, ok := s.MaybePeek()
	if !ok {
		return nil, s.parseError("expected an assignable")
	}
	switch tok.Kind {
	case token.MINUS:
		s.ConsumeToken()
		return ast.NewOmitted(tok.Pos), nil
	case token.LT:
		return parseBareBitsList(s, tok.Pos)
	case token.LPAREN:
		return parseAssignableTuple(s, tok.Pos)
	case token.IDENT, token.LINKED_IDENT:
		return parseIdentifierChain(s, tok)
	default:
		return nil, s.parseError("expected an identifier, '-', '<' or '('")
	}
}

func parseBareBitsList(s *Stream, pos token.Position) (ast.Expr, *ParseError) {
	s.ConsumeIf(token.LT)
	var names []string
	for {
		tok, perr := s.ConsumeAssert(token.IDENT)
		if perr != nil {
			return nil, perr
		}
		names = append(names, tok.Lit)
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.GT); err != nil {
		return nil, err
	}
	return ast.NewBits(pos, nil, names), nil
}

func parseAssignableTuple(s *Stream, pos token.Position) (ast.Expr, *ParseError) {
	s.ConsumeIf(token.LPAREN)
	var members []ast.Expr
	first, err := ParseAssignable(s)
	if err != nil {
		return nil, err
	}
	members = append(members, first)
	for {
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			next, err := ParseAssignable(s)
			if err != nil {
				return nil, err
			}
			members = append(members, next)
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
		return nil, err
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return ast.NewTuple(pos, members), nil
}

func parseIdentifierChain(s *Stream, first token.Token) (ast.Expr, *ParseError) {
	s.ConsumeToken()
	var result ast.Expr = &ast.Identifier{Token: first, Name: first.Lit}
chain:
	for {
		next, ok := s.MaybePeek()
		if !ok {
			break
		}
		switch next.Kind {
		case token.LBRACKET:
			s.ConsumeToken()
			var args []ast.Expr
			if t2, ok := s.MaybePeek(); !ok || t2.Kind != token.RBRACKET {
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
			if _, err := s.ConsumeAssert(token.RBRACKET); err != nil {
				return nil, err
			}
			result = &ast.Arguments{Func: result, Kind: "[]", Args: args}
		case token.DOT:
			if bits, matched, err := tryParseBitsFieldSuffix(s, result); err != nil {
				return nil, err
			} else if matched {
				result = bits
				break chain
			}
			s.ConsumeIf(token.DOT)
			nameTok, err := s.ConsumeToken()
			if err != nil {
				return nil, err
			}
			if nameTok.Kind != token.IDENT && nameTok.Kind != token.LINKED_IDENT {
				return nil, s.parseError("expected a name after '.'")
			}
			result = ast.NewQualifiedIdentifier(result, nameTok.Lit)
		default:
			break chain
		}
	}
	return result, nil
}

// tryParseBitsFieldSuffix forks to try `.<name,name,…>` after an
// assignable; on success it's always the terminal suffix, consistent with
// spec.md §4.4's "final .<name,name,…>" wording.
func tryParseBitsFieldSuffix(s *Stream, base ast.Expr) (ast.Expr, bool, *ParseError) {
	next, ok := s.MaybePeek()
	if !ok || next.Kind != token.DOT {
		return nil, false, nil
	}
	child := s.Fork()
	child.ConsumeIf(token.DOT)
	if t, ok := child.MaybePeek(); !ok || t.Kind != token.LT {
		s.Abandon(child)
		return nil, false, nil
	}
	child.ConsumeIf(token.LT)
	var names []string
	for {
		tok, ok := child.MaybePeek()
		if !ok || tok.Kind != token.IDENT {
			s.Abandon(child)
			return nil, false, nil
		}
		child.ConsumeToken()
		names = append(names, tok.Lit)
		if _, ok := child.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, ok := child.ConsumeIf(token.GT); !ok {
		s.Abandon(child)
		return nil, false, nil
	}
	s.Become(child)
	return ast.NewBits(base.Pos(), base, names), true, nil
}
