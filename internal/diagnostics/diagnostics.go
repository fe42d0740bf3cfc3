// Package diagnostics formats the two fatal-per-fragment error kinds
// described in spec.md §4.9/§7 — lexical and syntactic — into the
// single-line `LINE: error: MESSAGE` form plus a source-line-and-caret or
// token-context block.
package diagnostics

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two error kinds spec.md §7 names.
type Kind int

const (
	// Lex is an error raised by the tokenizer: unexpected character,
	// unterminated string/comment, bad indent, mismatched bracket,
	// malformed number, invalid anchor text.
	Lex Kind = iota
	// Parse is an error raised by the parser: token did not match the
	// expected production, stream ended early, stream left unconsumed, or
	// an un-abandoned speculative fork.
	Parse
)

// Report is one diagnostic, already resolved to a file-absolute position
// by the XML driver (the tokenizer itself only knows fragment-relative
// positions; see pkg/token.Position).
type Report struct {
	Kind    Kind
	File    string
	Line    int
	Column  int
	Message string

	// SourceLine is the offending line of source text (Lex only).
	SourceLine string

	// TokenContext is a short window of tokens around the failing
	// position with the failing token marked (Parse only).
	TokenContext string
}

// NewLexReport builds a Lex diagnostic.
func NewLexReport(file string, line, column int, sourceLine, message string) Report {
	return Report{
		Kind:       Lex,
		File:       file,
		Line:       line,
		Column:     column,
		Message:    message,
		SourceLine: sourceLine,
	}
}

// NewParseReport builds a Parse diagnostic.
func NewParseReport(file string, line, column int, tokenContext, message string) Report {
	return Report{
		Kind:         Parse,
		File:         file,
		Line:         line,
		Column:       column,
		Message:      message,
		TokenContext: tokenContext,
	}
}

// Format renders the diagnostic as spec.md §7 requires: a single
// `LINE: error: MESSAGE` line, followed by a source-line-and-caret block
// (Lex) or a token-context block (Parse). If color is true, the caret and
// the "error:" label use ANSI escapes.
func (r Report) Format(color bool) string {
	var sb strings.Builder

	if color {
		sb.WriteString("\033[1m")
	}
	fmt.Fprintf(&sb, "%d: ", r.Line)
	if color {
		sb.WriteString("\033[1;31m")
	}
	sb.WriteString("error: ")
	if color {
		sb.WriteString("\033[0m\033[1m")
	}
	sb.WriteString(r.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	sb.WriteString("\n")

	switch r.Kind {
	case Lex:
		if r.SourceLine != "" {
			sb.WriteString(r.SourceLine)
			sb.WriteString("\n")
			col := r.Column
			if col < 1 {
				col = 1
			}
			sb.WriteString(strings.Repeat(" ", col-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	case Parse:
		if r.TokenContext != "" {
			sb.WriteString(r.TokenContext)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// Error implements the error interface so a Report can be returned/wrapped
// as a plain Go error.
func (r Report) Error() string {
	return r.Format(false)
}

// FormatAll renders a sequence of reports, one after another.
func FormatAll(reports []Report, color bool) string {
	var sb strings.Builder
	for i, r := range reports {
		sb.WriteString(r.Format(color))
		if i < len(reports)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// SourceLine extracts the 1-indexed line lineNum from source, returning ""
// if it is out of range. It is used by the XML driver, which holds the raw
// file text, to build a Lex Report's SourceLine field.
func SourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}
