package parser

import (
	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/pkg/token"
)

// ParseType parses one type expression (spec.md §4.3): bit, bits(EXPR),
// boolean, integer, a tuple, an array, or a dotted name chain.
func ParseType(s *Stream) (ast.Type, *ParseError) {
	tok, ok := s.MaybePeek()
	if !ok {
		return nil, s.parseError("expected a type")
	}
	pos := tok.Pos
	switch tok.Kind {
	case token.BIT:
		s.ConsumeIf(token.BIT)
		return ast.NewBitType(pos), nil
	case token.BITS:
		s.ConsumeIf(token.BITS)
		if _, err := s.ConsumeAssert(token.LPAREN); err != nil {
			return nil, err
		}
		n, err := ParseTernary(s)
		if err != nil {
			return nil, err
		}
		if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
			return nil, err
		}
		return ast.NewBitsType(pos, n), nil
	case token.BOOLEAN:
		s.ConsumeIf(token.BOOLEAN)
		return ast.NewBooleanType(pos), nil
	case token.INTEGER:
		s.ConsumeIf(token.INTEGER)
		return ast.NewIntegerType(pos), nil
	case token.ARRAY:
		return parseArrayType(s, pos)
	case token.LPAREN:
		return parseTupleType(s, pos)
	case token.IDENT, token.LINKED_IDENT:
		return parseNamedType(s)
	default:
		return nil, s.parseError("expected a type")
	}
}

func parseArrayType(s *Stream, pos token.Position) (ast.Type, *ParseError) {
	s.ConsumeIf(token.ARRAY)
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
	if _, err := s.ConsumeAssert(token.OF); err != nil {
		return nil, err
	}
	base, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	return ast.NewArrayType(pos, base, lo, hi), nil
}

func parseTupleType(s *Stream, pos token.Position) (ast.Type, *ParseError) {
	s.ConsumeIf(token.LPAREN)
	var parts []ast.Type
	for {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		parts = append(parts, t)
		if _, ok := s.ConsumeIf(token.COMMA); ok {
			continue
		}
		break
	}
	if _, err := s.ConsumeAssert(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.NewTupleType(pos, parts), nil
}

// parseNamedType consumes a dotted name chain, terminating either when a
// LINKED_IDENT segment is consumed or when no further '.' follows.
func parseNamedType(s *Stream) (ast.Type, *ParseError) {
	first, err := s.ConsumeToken()
	if err != nil {
		return nil, err
	}
	if first.Kind != token.IDENT && first.Kind != token.LINKED_IDENT {
		return nil, s.parseError("expected a type name")
	}
	pos := first.Pos
	chain := []string{first.Lit}
	linked := first.Kind == token.LINKED_IDENT
	for !linked {
		if _, ok := s.ConsumeIf(token.DOT); !ok {
			break
		}
		next, err := s.ConsumeToken()
		if err != nil {
			return nil, err
		}
		if next.Kind != token.IDENT && next.Kind != token.LINKED_IDENT {
			return nil, s.parseError("expected a name segment")
		}
		chain = append(chain, next.Lit)
		linked = next.Kind == token.LINKED_IDENT
	}
	return ast.NewNamedType(pos, chain), nil
}
