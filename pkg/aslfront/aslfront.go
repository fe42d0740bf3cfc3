// Package aslfront is the public facade over the ASL front-end: tokenizer,
// parser, namespace and scope resolver. It mirrors the shape of the
// teacher's engine facade — a functional-option constructor returning a
// long-lived Processor, plus structured error types distinguishing the
// fatal-per-fragment failures (IngestError, FragmentError) from the scope
// resolver's non-fatal diagnostics — so a downstream consumer (an HTML
// renderer, say) has one import instead of reaching into internal/.
package aslfront

import (
	"fmt"
	"strings"

	"github.com/rlutz/aslfront/internal/ast"
	"github.com/rlutz/aslfront/internal/diagnostics"
	"github.com/rlutz/aslfront/internal/fixups"
	"github.com/rlutz/aslfront/internal/namespace"
	"github.com/rlutz/aslfront/internal/scope"
	"github.com/rlutz/aslfront/internal/xmldriver"
)

// Severity distinguishes a fatal error from an informational warning.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Error is one structured diagnostic: a position plus a message.
type Error struct {
	File     string
	Line     int
	Column   int
	Severity Severity
	Message  string
}

func (e *Error) Error() string {
	if e.Line == 0 && e.Column == 0 {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Severity, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Severity, e.Message)
}

// IsError reports whether the diagnostic is fatal to the unit it was
// raised against (a fragment, or the shared-pseudocode ingestion pass).
func (e *Error) IsError() bool { return e.Severity == SeverityError }

// IsWarning is IsError's complement.
func (e *Error) IsWarning() bool { return e.Severity == SeverityWarning }

// IngestError aggregates every diagnostic raised while ingesting the
// shared-pseudocode file's declarations into the namespace.
type IngestError struct {
	File   string
	Stage  string // "xml" (the file could not be read as XML) or "ingest"
	Errors []*Error
}

func (e *IngestError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, sub := range e.Errors {
		msgs[i] = sub.Error()
	}
	return fmt.Sprintf("%s: %d %s error(s):\n%s", e.File, len(e.Errors), e.Stage, strings.Join(msgs, "\n"))
}

// HasErrors reports whether any entry is fatal (as opposed to a warning).
func (e *IngestError) HasErrors() bool {
	for _, sub := range e.Errors {
		if sub.IsError() {
			return true
		}
	}
	return false
}

// FragmentError aggregates the lex/parse diagnostics raised across every
// fragment of one non-shared XML file. A fragment's own failure is fatal
// only to that fragment (spec.md §4.9) — the driver has already moved on
// to the next one by the time this is returned.
type FragmentError struct {
	File   string
	Errors []*Error
}

func (e *FragmentError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, sub := range e.Errors {
		msgs[i] = sub.Error()
	}
	return fmt.Sprintf("%s: %d fragment error(s):\n%s", e.File, len(e.Errors), strings.Join(msgs, "\n"))
}

func reportToError(file string, r diagnostics.Report) *Error {
	return &Error{File: file, Line: r.Line, Column: r.Column, Severity: SeverityError, Message: r.Message}
}

// Processor is the long-lived engine: it owns the vendor fix-up table, the
// XML driver built over it, and the namespace the shared-pseudocode file
// populates.
type Processor struct {
	fixups     *fixups.Table
	driver     *xmldriver.Driver
	ns         *namespace.Namespace
	sourceFile map[*ast.Function]string
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithFixups overrides the compiled-in vendor fix-up table and
// implicit-identifier allowlist (spec.md §6) with a custom one.
func WithFixups(t *fixups.Table) Option {
	return func(p *Processor) { p.fixups = t }
}

// New builds a Processor. With no options it uses the compiled-in fix-up
// defaults, matching the teacher's "works with zero configuration" facade
// contract.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{fixups: fixups.Default(), ns: namespace.New(), sourceFile: make(map[*ast.Function]string)}
	for _, opt := range opts {
		opt(p)
	}
	namespace.SetImplicitAllowlist(p.fixups.ImplicitAllowlist)
	p.driver = xmldriver.New(p.fixups)
	return p, nil
}

// Namespace returns the global symbol table built so far. It is read-only
// from the caller's perspective once IngestShared has populated it
// (spec.md §5 "Shared-resource policy").
func (p *Processor) Namespace() *namespace.Namespace {
	return p.ns
}

// IngestShared parses path's declarations (the shared-pseudocode file) and
// installs them into the namespace. Per spec.md §9's open question, this
// is the only path that calls namespace.Ingest — fragment bodies parsed by
// ParseFragment are never ingested.
func (p *Processor) IngestShared(path string, data []byte) *IngestError {
	frags, err := p.driver.ProcessFile(path, data, true)
	if err != nil {
		return &IngestError{File: path, Stage: "xml", Errors: []*Error{
			{File: path, Severity: SeverityError, Message: err.Error()},
		}}
	}

	var errs []*Error
	for _, f := range frags {
		for _, r := range f.Diagnostics {
			errs = append(errs, reportToError(path, r))
		}
		for _, decl := range f.Decls {
			if ierr := p.ns.Ingest(decl); ierr != nil {
				pos := decl.Pos()
				errs = append(errs, &Error{
					File: path, Line: pos.Line, Column: pos.Column,
					Severity: SeverityError, Message: ierr.Error(),
				})
				continue
			}
			if fn, ok := decl.(*ast.Function); ok {
				p.sourceFile[fn] = path
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &IngestError{File: path, Stage: "ingest", Errors: errs}
}

// ParseFragment parses every <pstext> fragment of a non-shared XML file.
// It returns the fragments it managed to produce (diagnostics attached
// per-fragment) alongside an aggregate FragmentError summarizing every
// lex/parse diagnostic in the file, nil if there were none.
func (p *Processor) ParseFragment(path string, data []byte) ([]xmldriver.Fragment, *FragmentError) {
	frags, err := p.driver.ProcessFile(path, data, false)
	if err != nil {
		return frags, &FragmentError{File: path, Errors: []*Error{
			{File: path, Severity: SeverityError, Message: err.Error()},
		}}
	}

	var errs []*Error
	for _, f := range frags {
		for _, r := range f.Diagnostics {
			errs = append(errs, reportToError(path, r))
		}
	}
	if len(errs) == 0 {
		return frags, nil
	}
	return frags, &FragmentError{File: path, Errors: errs}
}

// ResolveAll walks every Function/Accessor leaf in the namespace and runs
// the scope resolver over its body, returning every unresolved-identifier
// or invalid-assignment-target diagnostic found (spec.md §4.8 step 4).
// These are always warnings: unresolved names are reported but never fatal.
func (p *Processor) ResolveAll() []*Error {
	var out []*Error
	var walk func(n *namespace.Namespace)
	walk = func(n *namespace.Namespace) {
		if n.Leaf != nil {
			switch n.Leaf.Kind {
			case namespace.FunctionLeaf:
				for _, ov := range n.Leaf.Overloads {
					out = append(out, toWarnings(p.sourceFile[ov.Decl], scope.Resolve(p.ns, ov.Decl))...)
				}
			case namespace.AccessorLeaf:
				if n.Leaf.Setter != nil {
					out = append(out, toWarnings(p.sourceFile[n.Leaf.Setter], scope.Resolve(p.ns, n.Leaf.Setter))...)
				}
				if n.Leaf.Getter != nil {
					out = append(out, toWarnings(p.sourceFile[n.Leaf.Getter], scope.Resolve(p.ns, n.Leaf.Getter))...)
				}
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(p.ns)
	return out
}

func toWarnings(file string, diags []scope.Diagnostic) []*Error {
	out := make([]*Error, len(diags))
	for i, d := range diags {
		out[i] = &Error{
			File: file, Line: d.Pos.Line, Column: d.Pos.Column,
			Severity: SeverityWarning, Message: d.Message,
		}
	}
	return out
}
