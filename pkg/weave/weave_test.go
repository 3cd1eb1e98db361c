package weave

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromStringAndPathRendersTemplate(t *testing.T) {
	dir := t.TempDir()
	ctx := NewRootContext(dir)
	ctx.SetValue(Alias{"name"}, dir, "World")

	p, err := FromStringAndPathWithContext(filepath.Join(dir, "p.weave"), "Hi, ${ name }!", ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := p.Output(); got != "Hi, World!" {
		t.Fatalf("got %q", got)
	}
}

func TestNewWithContextPathLoadsContextFile(t *testing.T) {
	dir := t.TempDir()
	ctxFile := filepath.Join(dir, "ctx.json")
	if err := os.WriteFile(ctxFile, []byte(`{"title":"Report"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tmplFile := filepath.Join(dir, "page.weave")
	if err := os.WriteFile(tmplFile, []byte("${ title }"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := NewWithContextPath(tmplFile, ctxFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if got := p.Output(); got != "Report" {
		t.Fatalf("got %q", got)
	}
}

func TestReadContextRejectsNonObjectTopLevel(t *testing.T) {
	dir := t.TempDir()
	ctxFile := filepath.Join(dir, "ctx.json")
	if err := os.WriteFile(ctxFile, []byte(`"just a string"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadContext(ctxFile); err == nil {
		t.Fatal("expected error for non-object context file")
	}
}

func TestParseAliasRoundtrips(t *testing.T) {
	a, err := ParseAlias("a.b.c")
	if err != nil {
		t.Fatal(err)
	}
	if a.String() != "a.b.c" {
		t.Fatalf("got %q", a.String())
	}
}
