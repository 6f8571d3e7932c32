package bundle

import (
	"path/filepath"
	"testing"

	"github.com/c360studio/pcforge/pc/ast"
)

type fakeFS struct{ known map[string]bool }

func (f *fakeFS) Exists(path string) bool { return f.known[path] }
func (f *fakeFS) Canonicalize(path string) (string, error) {
	return filepath.Clean(path), nil
}

func mustParse(t *testing.T, path, src string) *ast.Document {
	t.Helper()
	doc, err := ast.Parse(path, []byte(src))
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return doc
}

func TestBuildDependenciesResolvesImports(t *testing.T) {
	fs := &fakeFS{known: map[string]bool{"a.pc": true, "b.pc": true}}
	b := New(fs)
	b.AddDocument(mustParse(t, "a.pc", `import "b.pc"`))
	b.AddDocument(mustParse(t, "b.pc", `public style base { color: black }`))

	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build: %v", err)
	}
	deps := b.GetDependencies("a.pc")
	if len(deps) != 1 || deps[0] != "b.pc" {
		t.Fatalf("got deps %v", deps)
	}
	dependents := b.GetDependents("b.pc")
	if len(dependents) != 1 || dependents[0] != "a.pc" {
		t.Fatalf("got dependents %v", dependents)
	}
}

func TestBuildDependenciesImportNotFound(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "a.pc", `import "missing.pc"`))

	err := b.BuildDependencies()
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*ImportNotFoundError); !ok {
		t.Fatalf("got %T, want *ImportNotFoundError", err)
	}
}

func TestBuildDependenciesCircular(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "a.pc", `import "b.pc"`))
	b.AddDocument(mustParse(t, "b.pc", `import "a.pc"`))

	err := b.BuildDependencies()
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*CircularDependencyError); !ok {
		t.Fatalf("got %T, want *CircularDependencyError", err)
	}
}

func TestFindComponentVisibility(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "lib.pc", `
public component Public { render div { } }
component Private { render div { } }
`))
	b.AddDocument(mustParse(t, "app.pc", `import "lib.pc"`))
	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := b.FindComponent("app.pc", "Public"); !ok {
		t.Fatal("expected Public to be visible from app.pc")
	}
	if _, ok := b.FindComponent("app.pc", "Private"); ok {
		t.Fatal("Private should not be visible from an importer")
	}
	if _, ok := b.FindComponent("lib.pc", "Private"); !ok {
		t.Fatal("Private should be visible within its own file")
	}
}

func TestFindStyleLocalBeforeImported(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "lib.pc", `public style base { color: black }`))
	b.AddDocument(mustParse(t, "app.pc", `
import "lib.pc"
public style base { color: white }
`))
	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build: %v", err)
	}

	style, ok := b.FindStyle("app.pc", "base")
	if !ok {
		t.Fatal("expected to find style base")
	}
	if style.Style.Properties["color"].(*ast.Literal).Str != "white" {
		t.Fatalf("expected local style to win, got %#v", style.Style.Properties["color"])
	}
}

func TestFindQualifiedReferencesFollowImportAlias(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "tokens.pc", `
token fontRegular = "Helvetica"
public style label { font-family: "Helvetica" }
public component Badge { render span { } }
`))
	b.AddDocument(mustParse(t, "app.pc", `
import "tokens.pc" as t
public component Page { render div { } }
`))
	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := b.FindToken("app.pc", "t.fontRegular"); !ok {
		t.Fatal("expected t.fontRegular to resolve via the import alias")
	}
	if _, ok := b.FindStyle("app.pc", "t.label"); !ok {
		t.Fatal("expected t.label to resolve via the import alias")
	}
	if _, ok := b.FindComponent("app.pc", "t.Badge"); !ok {
		t.Fatal("expected t.Badge to resolve via the import alias")
	}
	if _, ok := b.FindToken("app.pc", "unknownAlias.name"); ok {
		t.Fatal("expected an unknown alias to fail resolution")
	}
}

func TestFindQualifiedComponentRequiresPublic(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "lib.pc", `component Private { render div { } }`))
	b.AddDocument(mustParse(t, "app.pc", `import "lib.pc" as lib`))
	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := b.FindComponent("app.pc", "lib.Private"); ok {
		t.Fatal("a non-public component should not be visible via a qualified reference")
	}
}

func TestAssetsCollectedAcrossBundle(t *testing.T) {
	b := New(&fakeFS{})
	b.AddDocument(mustParse(t, "a.pc", `component A { render img(src = image("a.png")) { } }`))
	b.AddDocument(mustParse(t, "b.pc", `component B { render img(src = image("b.png")) { } }`))

	assets := b.Assets()
	if len(assets) != 2 {
		t.Fatalf("got %d assets, want 2", len(assets))
	}
}
