package wcontext

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetAndGetValue(t *testing.T) {
	c := New("/base")
	name := Alias{"user", "name"}
	c.SetValue(name, "/base", "Ada")
	if got := c.GetValue(name); got != "Ada" {
		t.Fatalf("GetValue = %v, want Ada", got)
	}
	if !c.Exists(name) {
		t.Fatal("expected Exists to be true")
	}
	if c.Exists(Alias{"nope"}) {
		t.Fatal("expected Exists to be false for missing alias")
	}
}

func TestSetValueMaterializesIntermediateNodes(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"a", "b", "c"}, "/base", float64(1))
	if got := c.GetValue(Alias{"a", "b", "c"}); got != float64(1) {
		t.Fatalf("got %v", got)
	}
	if _, ok := c.GetValue(Alias{"a", "b"}).(map[string]any); !ok {
		t.Fatal("expected intermediate node to be a map")
	}
}

func TestRemove(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"x"}, "/base", "y")
	c.Remove(Alias{"x"})
	if c.Exists(Alias{"x"}) {
		t.Fatal("expected x to be removed")
	}
	// removing an absent alias is not an error
	c.Remove(Alias{"does", "not", "exist"})
}

func TestTruthy(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"t"}, "/base", true)
	c.SetValue(Alias{"f"}, "/base", false)
	c.SetValue(Alias{"zero"}, "/base", float64(0))
	c.SetValue(Alias{"n"}, "/base", nil)
	c.SetValue(Alias{"empty_str"}, "/base", "")
	c.SetValue(Alias{"empty_arr"}, "/base", []any{})

	tests := []struct {
		alias string
		want  bool
	}{
		{"t", true}, {"f", false}, {"zero", false}, {"n", false},
		{"empty_str", true}, {"empty_arr", true}, {"missing", false},
	}
	for _, tt := range tests {
		a, _ := ParseAlias(tt.alias)
		if got := c.Truthy(a); got != tt.want {
			t.Errorf("Truthy(%s) = %v, want %v", tt.alias, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"n"}, "/base", nil)
	c.SetValue(Alias{"empty_str"}, "/base", "")
	c.SetValue(Alias{"str"}, "/base", "x")
	c.SetValue(Alias{"empty_obj"}, "/base", map[string]any{})
	c.SetValue(Alias{"obj"}, "/base", map[string]any{"a": float64(1)})
	c.SetValue(Alias{"empty_arr"}, "/base", []any{})

	tests := []struct {
		alias string
		want  bool
	}{
		{"n", true}, {"empty_str", true}, {"str", false},
		{"empty_obj", true}, {"obj", false},
		// Arrays are never empty under IsEmpty, distinct from Truthy.
		{"empty_arr", false},
	}
	for _, tt := range tests {
		a, _ := ParseAlias(tt.alias)
		if got := c.IsEmpty(a); got != tt.want {
			t.Errorf("IsEmpty(%s) = %v, want %v", tt.alias, got, tt.want)
		}
	}
}

func TestScopedBaseLongestPrefixWins(t *testing.T) {
	c := New("/root")
	c.SetValue(Alias{"a"}, "/root/a-base", map[string]any{"b": map[string]any{}})
	c.SetValue(Alias{"a", "b"}, "/root/a-b-base", "x")

	base, err := c.ScopedBase(Alias{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if base != "/root/a-b-base" {
		t.Fatalf("got %q, want the deepest registered base", base)
	}

	base, err = c.ScopedBase(Alias{"a", "other"})
	if err != nil {
		t.Fatal(err)
	}
	if base != "/root/a-base" {
		t.Fatalf("got %q, want the 'a' base for an unregistered sibling", base)
	}
}

func TestGetPathResolvesAgainstScopedBase(t *testing.T) {
	c := New("/tpl/dir")
	c.SetValue(Alias{"asset"}, "/tpl/dir", "img/logo.png")
	p, err := c.GetPath(Alias{"asset"})
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tpl/dir/img/logo.png" {
		t.Fatalf("got %q", p)
	}
}

func TestGetPathRejectsNonString(t *testing.T) {
	c := New("/tpl")
	c.SetValue(Alias{"n"}, "/tpl", float64(3))
	if _, err := c.GetPath(Alias{"n"}); err == nil {
		t.Fatal("expected error for non-string path value")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"list"}, "/base", []any{"a", "b"})
	clone := c.Clone()
	clone.SetValue(Alias{"list"}, "/base", []any{"mutated"})
	orig, _ := c.GetValue(Alias{"list"}).([]any)
	if len(orig) != 2 {
		t.Fatalf("mutating clone affected original: %v", orig)
	}
}

func TestGetAsContextProjectsSubtree(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"page"}, "/base/pages", map[string]any{"title": "Hi"})

	inner, err := c.GetAsContext(Alias{"page"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	title, err := inner.GetStringlike(Alias{"title"})
	if err != nil {
		t.Fatal(err)
	}
	if title != "Hi" {
		t.Fatalf("title = %q", title)
	}
}

func TestGetAsContextWithInnerAlias(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"other"}, "/base", "untouched")
	c.SetValue(Alias{"page"}, "/base/pages", map[string]any{"title": "Hi"})

	innerAlias := Alias{"item"}
	wrapped, err := c.GetAsContext(Alias{"page"}, &innerAlias)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := wrapped.GetStringlikeOpt(Alias{"other"}); !ok {
		t.Fatal("expected wrapped context to still carry sibling data")
	}
	title, err := wrapped.GetStringlike(Alias{"item", "title"})
	if err != nil || title != "Hi" {
		t.Fatalf("title = %q, err = %v", title, err)
	}
}

func TestGetEachAsContext(t *testing.T) {
	c := New("/base")
	c.SetValue(Alias{"items"}, "/base", []any{
		map[string]any{"name": "one"},
		map[string]any{"name": "two"},
	})
	ctxs, err := c.GetEachAsContext(Alias{"items"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctxs) != 2 {
		t.Fatalf("got %d contexts, want 2", len(ctxs))
	}
	name, _ := ctxs[1].GetStringlikeOpt(Alias{"name"})
	if name != "two" {
		t.Fatalf("got %q", name)
	}
}

func TestComparisons(t *testing.T) {
	if !Eq("a", "a") || Eq("a", "b") {
		t.Fatal("Eq behaves incorrectly")
	}
	if !Ne(float64(1), float64(2)) {
		t.Fatal("Ne behaves incorrectly")
	}
	gt, err := Gt(float64(2), float64(1))
	if err != nil || !gt {
		t.Fatalf("Gt = %v, %v", gt, err)
	}
	if _, err := Gt("a", float64(1)); err == nil {
		t.Fatal("expected CMP-0001 for mismatched types")
	}
}

func TestNewFromFileRequiresObject(t *testing.T) {
	dir := t.TempDir()
	arr := filepath.Join(dir, "arr.json")
	if err := os.WriteFile(arr, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(arr); err == nil {
		t.Fatal("expected CTX-0002 for non-object top level")
	}

	obj := filepath.Join(dir, "obj.json")
	if err := os.WriteFile(obj, []byte(`{"name":"Ada"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewFromFile(obj)
	if err != nil {
		t.Fatal(err)
	}
	name, _ := c.GetStringlikeOpt(Alias{"name"})
	if name != "Ada" {
		t.Fatalf("name = %q", name)
	}
}
