package aslfront

import (
	"testing"

	"github.com/rlutz/aslfront/internal/xmldriver"
)

const sharedXML = `<shared_pseudocode>
<ps name="func" mylink="func" secttype="Library">
  <pstext mayhavelinks="1" section="Functions" rep_section="functions">integer <anchor link="AddOne" hover="AddOne">AddOne</anchor>(integer x)
    return x + 1;</pstext>
</ps>
</shared_pseudocode>`

func TestIngestShared(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ierr := p.IngestShared("/tmp/shared_pseudocode.xml", []byte(sharedXML)); ierr != nil {
		t.Fatalf("IngestShared: %v", ierr)
	}
	if _, err := p.Namespace().Lookup([]string{"AddOne"}); err != nil {
		t.Errorf("AddOne not found after ingestion: %v", err)
	}
}

func TestIngestSharedDuplicate(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if ierr := p.IngestShared("/tmp/shared_pseudocode.xml", []byte(sharedXML)); ierr != nil {
		t.Fatalf("first IngestShared: %v", ierr)
	}
	clash := `<shared_pseudocode>
<ps name="clash" mylink="clash" secttype="Library">
  <pstext mayhavelinks="1" section="Functions" rep_section="functions">type AddOne;</pstext>
</ps>
</shared_pseudocode>`
	ierr := p.IngestShared("/tmp/shared_pseudocode.xml", []byte(clash))
	if ierr == nil {
		t.Fatal("expected an IngestError for a type clashing with an existing function name")
	}
	if !ierr.HasErrors() {
		t.Errorf("IngestError has no fatal entries: %v", ierr)
	}
}

func TestParseFragmentExpression(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := `<ps name="frag" mylink="frag" secttype="Operation">
  <pstext mayhavelinks="1" section="Execute" rep_section="execute">1 + 1</pstext>
</ps>`
	frags, ferr := p.ParseFragment("/tmp/op.xml", []byte(src))
	if ferr != nil {
		t.Fatalf("ParseFragment: %v", ferr)
	}
	if len(frags) != 1 || frags[0].Kind != xmldriver.FragmentExpression {
		t.Fatalf("unexpected fragments: %+v", frags)
	}
}

func TestParseFragmentDoesNotIngest(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := `<ps name="func" mylink="func" secttype="Library">
  <pstext mayhavelinks="1" section="Functions" rep_section="functions">integer AddOne(integer x)
    return x + 1;</pstext>
</ps>`
	if _, ferr := p.ParseFragment("/tmp/other.xml", []byte(src)); ferr != nil {
		t.Fatalf("ParseFragment: %v", ferr)
	}
	if _, err := p.Namespace().Lookup([]string{"AddOne"}); err == nil {
		t.Error("ParseFragment must not ingest declarations into the namespace")
	}
}

func TestResolveAllReportsUnresolvedIdentifier(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	src := `<shared_pseudocode>
<ps name="func" mylink="func" secttype="Library">
  <pstext mayhavelinks="1" section="Functions" rep_section="functions">integer <anchor link="BadFunc" hover="BadFunc">BadFunc</anchor>()
    return totallyUnknownName;</pstext>
</ps>
</shared_pseudocode>`
	if ierr := p.IngestShared("/tmp/shared_pseudocode.xml", []byte(src)); ierr != nil {
		t.Fatalf("IngestShared: %v", ierr)
	}
	diags := p.ResolveAll()
	if len(diags) == 0 {
		t.Fatal("expected an unresolved-identifier warning")
	}
	for _, d := range diags {
		if !d.IsWarning() {
			t.Errorf("ResolveAll diagnostic should be a warning, got %v", d.Severity)
		}
		if d.File != "/tmp/shared_pseudocode.xml" {
			t.Errorf("File = %q, want the ingested file path", d.File)
		}
	}
}
