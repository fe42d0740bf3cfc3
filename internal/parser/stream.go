// Package parser implements the ASL recursive-descent parser: a token
// stream abstraction (this file), plus the type, expression, statement and
// declaration parsers built on top of it (spec.md §4.2–§4.6).
package parser

import (
	"fmt"
	"strings"

	"github.com/rlutz/aslfront/pkg/token"
)

// ParseError is the second of the two fatal error kinds from spec.md §4.9.
// It carries the stream's position at the point of failure plus a rendered
// token-context window, for the diagnostic reporter (internal/diagnostics).
type ParseError struct {
	Pos     token.Position
	Context string
	Msg     string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// Stream is a cursor over a slice `[0, stop)` of a token list (spec.md
// §4.2). It may itself be positioned over a nested token.Block: the
// statement/declaration parsers call EnterBlock to descend into one.
//
// Forking is modeled as the spec describes it: Fork produces a child
// Stream sharing the same backing slice and an outstanding-fork counter;
// Abandon drops the child without touching the parent's position; Become
// adopts the child's advanced position. The counter is shared across the
// whole fork tree rooted at one Stream so the "no outstanding forks at
// parse completion" invariant can be checked once, at the top.
type Stream struct {
	items     []token.Item
	pos       int
	stop      int
	forkCount *int
}

// NewStream creates a Stream over items[0:len(items)].
func NewStream(items []token.Item) *Stream {
	n := 0
	return &Stream{items: items, stop: len(items), forkCount: &n}
}

// EnterBlock creates a fresh top-level Stream over a nested block's items,
// for parsing the statements/declarations inside one indented region.
func EnterBlock(b token.Block) *Stream {
	return NewStream([]token.Item(b))
}

func (s *Stream) atEnd() bool {
	return s.pos >= s.stop
}

func (s *Stream) currentPos() token.Position {
	if s.pos < len(s.items) {
		if tok, ok := token.AsToken(s.items[s.pos]); ok {
			return tok.Pos
		}
	}
	if s.pos > 0 {
		if tok, ok := token.AsToken(s.items[s.pos-1]); ok {
			return tok.Pos
		}
	}
	return token.Position{}
}

// context renders a small window of tokens around the current position,
// with the current token bracketed, for ParseError's Context field.
func (s *Stream) context() string {
	const window = 4
	lo := s.pos - window
	if lo < 0 {
		lo = 0
	}
	hi := s.pos + window
	if hi > s.stop {
		hi = s.stop
	}
	var sb strings.Builder
	for i := lo; i < hi; i++ {
		if i > lo {
			sb.WriteString(" ")
		}
		mark := i == s.pos
		if mark {
			sb.WriteString("[")
		}
		sb.WriteString(itemString(s.items[i]))
		if mark {
			sb.WriteString("]")
		}
	}
	if s.pos >= hi {
		sb.WriteString(" [EOF]")
	}
	return sb.String()
}

func itemString(it token.Item) string {
	if tok, ok := token.AsToken(it); ok {
		return tok.String()
	}
	return "<block>"
}

func (s *Stream) parseError(msg string) *ParseError {
	return &ParseError{Pos: s.currentPos(), Context: s.context(), Msg: msg}
}

// PeekItem returns the current item (token or nested block) without
// advancing, and a ParseError if the stream is at its stop.
func (s *Stream) PeekItem() (token.Item, *ParseError) {
	if s.atEnd() {
		return nil, s.parseError("unexpected end of input")
	}
	return s.items[s.pos], nil
}

// Peek returns the current token, and a ParseError if the stream is at its
// stop or the current item is a nested block rather than a token.
func (s *Stream) Peek() (token.Token, *ParseError) {
	it, err := s.PeekItem()
	if err != nil {
		return token.Token{}, err
	}
	tok, ok := token.AsToken(it)
	if !ok {
		return token.Token{}, s.parseError("expected a token, found a nested block")
	}
	return tok, nil
}

// MaybePeek returns the current token and true, or a zero token and false
// if the stream is at its stop or positioned on a nested block. It never
// produces a ParseError — this is the sentinel-returning counterpart of
// Peek (spec.md §4.2).
func (s *Stream) MaybePeek() (token.Token, bool) {
	if s.atEnd() {
		return token.Token{}, false
	}
	tok, ok := token.AsToken(s.items[s.pos])
	return tok, ok
}

// MaybePeekItem is MaybePeek's counterpart for the case where a nested
// block at the current position is itself a meaningful answer (e.g.
// statement-block splitting).
func (s *Stream) MaybePeekItem() (token.Item, bool) {
	if s.atEnd() {
		return nil, false
	}
	return s.items[s.pos], true
}

// Consume returns the current item and advances.
func (s *Stream) Consume() (token.Item, *ParseError) {
	it, err := s.PeekItem()
	if err != nil {
		return nil, err
	}
	s.pos++
	return it, nil
}

// ConsumeToken returns the current token and advances, or a ParseError if
// positioned on a nested block or at the stop.
func (s *Stream) ConsumeToken() (token.Token, *ParseError) {
	tok, err := s.Peek()
	if err != nil {
		return token.Token{}, err
	}
	s.pos++
	return tok, nil
}

// ConsumeIf advances and returns (tok, true) only if the current token has
// kind k; otherwise the stream is unchanged and it returns (zero, false).
func (s *Stream) ConsumeIf(k token.Kind) (token.Token, bool) {
	tok, ok := s.MaybePeek()
	if !ok || tok.Kind != k {
		return token.Token{}, false
	}
	s.pos++
	return tok, true
}

// ConsumeIfLit is ConsumeIf restricted to IDENT tokens whose literal text
// equals lit — used to match the structural `type` keyword (spec.md §9).
func (s *Stream) ConsumeIfLit(k token.Kind, lit string) (token.Token, bool) {
	tok, ok := s.MaybePeek()
	if !ok || tok.Kind != k || tok.Lit != lit {
		return token.Token{}, false
	}
	s.pos++
	return tok, true
}

// ConsumeAssert advances past the current token if it has kind k;
// otherwise it returns a ParseError and leaves the stream unchanged.
func (s *Stream) ConsumeAssert(k token.Kind) (token.Token, *ParseError) {
	tok, ok := s.ConsumeIf(k)
	if !ok {
		return token.Token{}, s.parseError(fmt.Sprintf("expected %s", k))
	}
	return tok, nil
}

// Fork creates a child Stream positioned at the same cursor as s, linked
// to s's outstanding-fork counter (spec.md §4.2).
func (s *Stream) Fork() *Stream {
	*s.forkCount++
	return &Stream{items: s.items, pos: s.pos, stop: s.stop, forkCount: s.forkCount}
}

// Abandon discards child; s is left unchanged.
func (s *Stream) Abandon(child *Stream) {
	*s.forkCount--
}

// Become adopts child's advanced position.
func (s *Stream) Become(child *Stream) {
	s.pos = child.pos
	*s.forkCount--
}

// Finish asserts the stream is fully consumed and has no outstanding
// forks, the parse-completion invariant from spec.md §4.2.
func (s *Stream) Finish() *ParseError {
	if s.pos != s.stop {
		return s.parseError("trailing input after parse")
	}
	if *s.forkCount != 0 {
		return s.parseError("un-abandoned speculative fork")
	}
	return nil
}

// Remaining reports how many items are left before stop.
func (s *Stream) Remaining() int {
	return s.stop - s.pos
}

// AtEnd reports whether the stream is positioned at its stop.
func (s *Stream) AtEnd() bool {
	return s.atEnd()
}

// LookAhead scans forward from the current position (without consuming)
// for an item matching predicate, returning the item, its distance and
// true, or (nil, 0, false) if the stop is reached first. No parser
// production calls it or ScanUntil; grounded on the teacher's cursor
// LookAhead but adapted to items instead of tokens, since a block boundary
// in the middle of a scan is itself significant.
func (s *Stream) LookAhead(predicate func(token.Item) bool) (token.Item, int, bool) {
	for d := 0; s.pos+d < s.stop; d++ {
		it := s.items[s.pos+d]
		if predicate(it) {
			return it, d, true
		}
	}
	return nil, 0, false
}

// ScanUntil collects items from the current position up to (not including)
// the first one matching stop, or up to the stream's stop if none matches.
func (s *Stream) ScanUntil(stop func(token.Item) bool) []token.Item {
	var collected []token.Item
	for i := s.pos; i < s.stop; i++ {
		if stop(s.items[i]) {
			break
		}
		collected = append(collected, s.items[i])
	}
	return collected
}
