// Package xmldriver implements the SAX-style XML reader spec.md §1 names as
// an out-of-scope collaborator: it walks the <ps>/<pstext>/<a>/<anchor>
// element shape spec.md §6 defines, feeds the tokenizer through the
// Process/ProcessA/ProcessAnchor/End contract (internal/lexer), classifies
// the resulting token tree as a block or a single ternary expression, and
// translates fragment-relative LexError/ParseError positions into
// file-absolute diagnostics.Report values.
package xmldriver

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/internal/diagnostics"
	"github.com/rlutz/aslfront/internal/fixups"
	"github.com/rlutz/aslfront/internal/lexer"
	"github.com/rlutz/aslfront/internal/parser"
	"github.com/rlutz/aslfront/pkg/token"
)

// FragmentKind is the classification output of spec.md §6.
type FragmentKind int

const (
	FragmentEmpty FragmentKind = iota
	FragmentBlock
	FragmentExpression
)

// Classify implements spec.md §6's "Fragment classification output"
// contract over a fully tokenized fragment.
func Classify(b token.Block) FragmentKind {
	if len(b) == 0 {
		return FragmentEmpty
	}
	if tok, ok := token.AsToken(b[0]); ok && tok.Kind == token.IDENT && token.IsTypeKeyword(tok.Lit) {
		return FragmentBlock
	}
	if _, ok := token.AsBlock(b[len(b)-1]); ok {
		return FragmentBlock
	}
	if len(b) >= 2 {
		last, lastOK := token.AsToken(b[len(b)-1])
		prev, prevOK := token.AsToken(b[len(b)-2])
		if lastOK && prevOK && prev.Kind == token.SEMI && last.Kind == token.NEWLINE {
			return FragmentBlock
		}
	}
	return FragmentExpression
}

// allowedPstext enumerates the exactly-permitted (secttype, section,
// rep_section) tuples spec.md §6 closes over.
var allowedPstext = map[[3]string]bool{
	{"noheading", "Decode", "decode"}:             true,
	{"Operation", "Execute", "execute"}:           true,
	{"Library", "Functions", "functions"}:         true,
	{"Shared Decode", "Postdecode", "postdecode"}: true,
}

// ErrInvalidFragment is returned when a <pstext>'s (secttype, section,
// rep_section) triple isn't one of the four spec.md §6 allows.
type ErrInvalidFragment struct {
	SectType, Section, RepSection string
}

func (e *ErrInvalidFragment) Error() string {
	return fmt.Sprintf("xmldriver: fragment shape (secttype=%q, section=%q, rep_section=%q) is not one of the allowed tuples",
		e.SectType, e.Section, e.RepSection)
}

// Fragment is one <pstext> body, parsed and classified.
type Fragment struct {
	Name       string // the owning <ps>'s name attribute
	MyLink     string
	SectType   string
	Section    string
	RepSection string

	Kind FragmentKind

	// Exactly one of Decls, Stmts, Expr is populated, matching Kind:
	// Decls for a FragmentBlock inside the shared-pseudocode file, Stmts
	// for a FragmentBlock elsewhere, Expr for a FragmentExpression. All
	// are nil for FragmentEmpty or when Diagnostics is non-empty.
	Decls []ast.Decl
	Stmts []ast.Stmt
	Expr  ast.Expr

	Diagnostics []diagnostics.Report
}

// Driver holds the cross-fragment configuration (vendor fix-ups) needed to
// process one XML file.
type Driver struct {
	Fixups *fixups.Table
}

// New creates a Driver backed by fx, applying fx's patches to character
// data before it reaches the tokenizer (spec.md §6).
func New(fx *fixups.Table) *Driver {
	return &Driver{Fixups: fx}
}

// lineMap maps a byte offset within source to a 1-indexed (line, column)
// pair, the translation the XML driver alone is positioned to make since
// only it holds the raw file text (spec.md §9 "Reporting offsets").
type lineMap struct {
	src       string
	lineStart []int
}

func newLineMap(src string) *lineMap {
	lm := &lineMap{src: src, lineStart: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			lm.lineStart = append(lm.lineStart, i+1)
		}
	}
	return lm
}

func (lm *lineMap) lineCol(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	idx := sort.Search(len(lm.lineStart), func(i int) bool { return lm.lineStart[i] > offset }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx + 1, offset - lm.lineStart[idx] + 1
}

// fragState tracks the in-progress <pstext> fragment: the tokenizer
// consuming its events, the file-absolute offset its character data began
// at (for translating tokenizer positions back to the file), and the
// current accumulation buffer while inside a nested <a>/<anchor>.
type fragState struct {
	tok      *lexer.Tokenizer
	startOff int

	// insideLink is non-zero while between a <a>/<anchor> start and end
	// tag, naming which of the two; CharData is accumulated into linkText
	// rather than fed straight to the tokenizer while it holds.
	insideLink elementKind
	linkText   bytes.Buffer
	linkOff    int

	name       string
	mylink     string
	sectType   string
	section    string
	repSection string
}

type elementKind int

const (
	notLink elementKind = iota
	linkA
	linkAnchor
)

// ProcessFile walks one XML file's <ps>/<pstext> fragments and returns
// each one tokenized, classified and parsed. shared selects the
// shared-pseudocode file's declaration grammar over the ordinary
// statement grammar for FragmentBlock fragments (spec.md §9's "non-shared
// fragment bodies are never ingested" asymmetry — the caller decides
// ingestion; this only decides which parser entry point to call).
func (d *Driver) ProcessFile(path string, source []byte, shared bool) ([]Fragment, error) {
	src := string(source)
	lm := newLineMap(src)

	dec := xml.NewDecoder(bytes.NewReader(source))
	var fragments []Fragment
	var curPs struct {
		name, mylink, sectType string
	}
	var fs *fragState

	for {
		tk, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fragments, fmt.Errorf("xmldriver: %s: %w", path, err)
		}

		switch el := tk.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "ps":
				curPs.name, curPs.mylink, curPs.sectType = "", "", ""
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "name":
						curPs.name = a.Value
					case "mylink":
						curPs.mylink = a.Value
					case "secttype":
						curPs.sectType = a.Value
					}
				}
			case "pstext":
				var section, repSection string
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "section":
						section = a.Value
					case "rep_section":
						repSection = a.Value
					}
				}
				key := [3]string{curPs.sectType, section, repSection}
				if section != "" || repSection != "" {
					if !allowedPstext[key] {
						return fragments, &ErrInvalidFragment{curPs.sectType, section, repSection}
					}
				}
				fs = &fragState{
					tok:        lexer.New(),
					startOff:   int(dec.InputOffset()),
					name:       curPs.name,
					mylink:     curPs.mylink,
					sectType:   curPs.sectType,
					section:    section,
					repSection: repSection,
				}
			case "a":
				if fs != nil {
					fs.insideLink = linkA
					fs.linkText.Reset()
					fs.linkOff = int(dec.InputOffset())
				}
			case "anchor":
				if fs != nil {
					fs.insideLink = linkAnchor
					fs.linkText.Reset()
					fs.linkOff = int(dec.InputOffset())
				}
			}

		case xml.CharData:
			if fs == nil {
				continue
			}
			if fs.insideLink != notLink {
				fs.linkText.Write(el)
				continue
			}
			chunkOff := int(dec.InputOffset()) - len(el)
			text := d.Fixups.Apply(path, string(el))
			if lerr := fs.tok.Process(text); lerr != nil {
				fragments = append(fragments, emptyErrorFragment(fs, lm, chunkOff, lerr))
				fs = nil
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "a":
				if fs == nil {
					continue
				}
				lerr := fs.tok.ProcessA(fs.linkText.String())
				fs.insideLink = notLink
				if lerr != nil {
					fragments = append(fragments, emptyErrorFragment(fs, lm, fs.linkOff, lerr))
					fs = nil
				}
			case "anchor":
				if fs == nil {
					continue
				}
				lerr := fs.tok.ProcessAnchor(fs.linkText.String())
				fs.insideLink = notLink
				if lerr != nil {
					fragments = append(fragments, emptyErrorFragment(fs, lm, fs.linkOff, lerr))
					fs = nil
				}
			case "pstext":
				if fs == nil {
					continue
				}
				frag, ferr := d.finishFragment(fs, lm, shared)
				if ferr != nil {
					return fragments, ferr
				}
				fragments = append(fragments, frag)
				fs = nil
			}
		}
	}

	return fragments, nil
}

// emptyErrorFragment builds a Fragment carrying a single Lex diagnostic,
// translating lerr's chunk-relative offset through chunkOff (the
// file-absolute offset the chunk being scanned started at).
func emptyErrorFragment(fs *fragState, lm *lineMap, chunkOff int, lerr error) Fragment {
	le, ok := lerr.(*lexer.LexError)
	msg := lerr.Error()
	pos := chunkOff
	if ok {
		pos = chunkOff + le.Pos
	}
	line, col := lm.lineCol(pos)
	return Fragment{
		Name:       fs.name,
		MyLink:     fs.mylink,
		SectType:   fs.sectType,
		Section:    fs.section,
		RepSection: fs.repSection,
		Diagnostics: []diagnostics.Report{
			diagnostics.NewLexReport(fs.name, line, col, diagnostics.SourceLine(lm.src, line), msg),
		},
	}
}

// finishFragment ends the tokenizer, classifies the resulting tree and
// parses it, converting any lex/parse error into a file-absolute Report.
func (d *Driver) finishFragment(fs *fragState, lm *lineMap, shared bool) (Fragment, error) {
	frag := Fragment{
		Name:       fs.name,
		MyLink:     fs.mylink,
		SectType:   fs.sectType,
		Section:    fs.section,
		RepSection: fs.repSection,
	}

	block, lerr := fs.tok.End()
	if lerr != nil {
		le, _ := lerr.(*lexer.LexError)
		pos := fs.startOff
		if le != nil {
			pos += le.Pos
		}
		line, col := lm.lineCol(pos)
		frag.Diagnostics = append(frag.Diagnostics, diagnostics.NewLexReport(
			fs.name, line, col, diagnostics.SourceLine(lm.src, line), lerr.Error()))
		return frag, nil
	}

	frag.Kind = Classify(block)
	switch frag.Kind {
	case FragmentEmpty:
		return frag, nil
	case FragmentBlock:
		s := parser.EnterBlock(block)
		if shared {
			decls, perr := parser.ParseDeclarations(s)
			if perr != nil {
				frag.Diagnostics = append(frag.Diagnostics, d.parseReport(fs, lm, perr))
				return frag, nil
			}
			frag.Decls = decls
		} else {
			stmts, perr := parser.ParseProgram(s)
			if perr != nil {
				frag.Diagnostics = append(frag.Diagnostics, d.parseReport(fs, lm, perr))
				return frag, nil
			}
			frag.Stmts = stmts
		}
	case FragmentExpression:
		s := parser.EnterBlock(block)
		expr, perr := parser.ParseExpr(s)
		if perr == nil {
			s.ConsumeIf(token.NEWLINE)
			if ferr := s.Finish(); ferr != nil {
				perr = ferr
			}
		}
		if perr != nil {
			frag.Diagnostics = append(frag.Diagnostics, d.parseReport(fs, lm, perr))
			return frag, nil
		}
		frag.Expr = expr
	}
	return frag, nil
}

func (d *Driver) parseReport(fs *fragState, lm *lineMap, perr *parser.ParseError) diagnostics.Report {
	line, col := lm.lineCol(fs.startOff + perr.Pos.Offset)
	return diagnostics.NewParseReport(fs.name, line, col, perr.Context, perr.Msg)
}
