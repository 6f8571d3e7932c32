// Package bundle resolves imports across a set of parsed .pc documents: it
// builds the dependency graph, and answers lookups for styles, tokens, and
// components following the local-then-imported-then-never-third-party-public
// resolution order.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/pcforge/pc/ast"
)

// ImportNotFoundError is returned by BuildDependencies when a document
// imports a path that was never added to the bundle.
type ImportNotFoundError struct {
	FromPath   string
	ImportPath string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("%s: import not found: %q", e.FromPath, e.ImportPath)
}

// CircularDependencyError is returned by BuildDependencies when the import
// graph contains a cycle.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency: %v", e.Cycle)
}

// FileSystem is the capability a Bundle needs from its embedder to resolve
// relative import paths and asset references: existence checks and path
// canonicalization, never direct file reads (a Bundle only ever holds
// already-parsed ast.Document values).
type FileSystem interface {
	Exists(path string) bool
	Canonicalize(path string) (string, error)
}

// OSFileSystem is the FileSystem backed by the real filesystem, for
// embedders that don't need a virtual or test filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Bundle indexes a set of parsed documents by path and resolves the
// cross-file lookups the evaluator needs: imports, public styles, tokens,
// and components.
type Bundle struct {
	fs   FileSystem
	docs map[string]*ast.Document // canonical path -> document

	// deps[path] is the set of canonical paths path directly imports, once
	// BuildDependencies has run successfully.
	deps map[string]map[string]struct{}
}

// New creates an empty Bundle backed by fs for canonicalization.
func New(fs FileSystem) *Bundle {
	return &Bundle{
		fs:   fs,
		docs: map[string]*ast.Document{},
		deps: map[string]map[string]struct{}{},
	}
}

// AddDocument registers doc under its own Path, replacing any document
// previously registered at that path.
func (b *Bundle) AddDocument(doc *ast.Document) {
	b.docs[doc.Path] = doc
}

// Document returns the document registered at path, if any.
func (b *Bundle) Document(path string) (*ast.Document, bool) {
	d, ok := b.docs[path]
	return d, ok
}

// Paths returns every registered document path, sorted for deterministic
// iteration.
func (b *Bundle) Paths() []string {
	out := make([]string, 0, len(b.docs))
	for p := range b.docs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// BuildDependencies resolves every Import declaration across all registered
// documents into a DAG. It fails closed: the first ImportNotFoundError or
// CircularDependencyError aborts the whole build, leaving any
// previously-built graph untouched.
func (b *Bundle) BuildDependencies() error {
	deps := map[string]map[string]struct{}{}

	for _, path := range b.Paths() {
		doc := b.docs[path]
		set := map[string]struct{}{}
		for _, decl := range doc.Declarations {
			imp, ok := decl.(*ast.Import)
			if !ok {
				continue
			}
			resolved, err := b.resolveImportPath(path, imp.Path)
			if err != nil {
				return err
			}
			if _, ok := b.docs[resolved]; !ok {
				return &ImportNotFoundError{FromPath: path, ImportPath: imp.Path}
			}
			set[resolved] = struct{}{}
		}
		deps[path] = set
	}

	if cyc := findCycle(deps); cyc != nil {
		return &CircularDependencyError{Cycle: cyc}
	}

	b.deps = deps
	return nil
}

func (b *Bundle) resolveImportPath(fromPath, importPath string) (string, error) {
	joined := importPath
	if !filepath.IsAbs(importPath) {
		joined = filepath.Join(filepath.Dir(fromPath), importPath)
	}
	if b.fs == nil {
		return filepath.Clean(joined), nil
	}
	return b.fs.Canonicalize(joined)
}

func findCycle(deps map[string]map[string]struct{}) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		for dep := range deps[n] {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				// found the cycle: slice path from dep's first occurrence
				for i, p := range path {
					if p == dep {
						cycle = append([]string{}, path[i:]...)
						cycle = append(cycle, dep)
						return true
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	nodes := make([]string, 0, len(deps))
	for n := range deps {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if color[n] == white {
			if visit(n) {
				return cycle
			}
		}
	}
	return nil
}

// GetDependencies returns the canonical paths path directly imports.
func (b *Bundle) GetDependencies(path string) []string {
	return setKeys(b.deps[path])
}

// GetDependents returns every registered path that directly imports path.
func (b *Bundle) GetDependents(path string) []string {
	var out []string
	for p, set := range b.deps {
		if _, ok := set[path]; ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// splitQName splits a reference of the form "ns.name" into its import alias
// and bare name. A bare reference with no dot returns qualified == false.
func splitQName(name string) (alias, bare string, qualified bool) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return "", name, false
}

// resolveAlias follows the import aliased as alias in the document at
// fromPath to the canonical path it resolves to.
func (b *Bundle) resolveAlias(fromPath, alias string) (string, bool) {
	doc, ok := b.docs[fromPath]
	if !ok {
		return "", false
	}
	for _, decl := range doc.Declarations {
		imp, ok := decl.(*ast.Import)
		if !ok || imp.Alias != alias {
			continue
		}
		resolved, err := b.resolveImportPath(fromPath, imp.Path)
		if err != nil {
			return "", false
		}
		return resolved, true
	}
	return "", false
}

// FindStyle resolves name to a PublicStyle. A bare name searches path's own
// document first, then its direct imports, in sorted path order. A
// qualified "ns.name" follows the import aliased ns and searches only that
// document. A style declared but not marked public is invisible to importers.
func (b *Bundle) FindStyle(path, name string) (*ast.PublicStyle, bool) {
	alias, bare, qualified := splitQName(name)
	if qualified {
		target, ok := b.resolveAlias(path, alias)
		if !ok {
			return nil, false
		}
		return findStyleDecl(b.docs[target], bare)
	}
	if s, ok := findStyleDecl(b.docs[path], bare); ok {
		return s, true
	}
	for _, dep := range b.GetDependencies(path) {
		if s, ok := findStyleDecl(b.docs[dep], bare); ok {
			return s, true
		}
	}
	return nil, false
}

func findStyleDecl(doc *ast.Document, name string) (*ast.PublicStyle, bool) {
	if doc == nil {
		return nil, false
	}
	for _, decl := range doc.Declarations {
		if s, ok := decl.(*ast.PublicStyle); ok && s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// FindToken resolves name to a TokenDecl using the same local-then-imported,
// alias-routed resolution as FindStyle. Token declarations have no
// public/private distinction: any token in an imported file is visible.
func (b *Bundle) FindToken(path, name string) (*ast.TokenDecl, bool) {
	alias, bare, qualified := splitQName(name)
	if qualified {
		target, ok := b.resolveAlias(path, alias)
		if !ok {
			return nil, false
		}
		return findTokenDecl(b.docs[target], bare)
	}
	if t, ok := findTokenDecl(b.docs[path], bare); ok {
		return t, true
	}
	for _, dep := range b.GetDependencies(path) {
		if t, ok := findTokenDecl(b.docs[dep], bare); ok {
			return t, true
		}
	}
	return nil, false
}

func findTokenDecl(doc *ast.Document, name string) (*ast.TokenDecl, bool) {
	if doc == nil {
		return nil, false
	}
	for _, decl := range doc.Declarations {
		if t, ok := decl.(*ast.TokenDecl); ok && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// FindComponent resolves name to a Component. A bare name searches path's
// own document first (public or not), then its direct imports' public
// components only — a non-public component is never visible outside the
// file that declares it, even to a direct importer. A qualified "ns.name"
// follows the import aliased ns and requires the target component be public,
// the same as any other cross-file lookup.
func (b *Bundle) FindComponent(path, name string) (*ast.Component, bool) {
	alias, bare, qualified := splitQName(name)
	if qualified {
		target, ok := b.resolveAlias(path, alias)
		if !ok {
			return nil, false
		}
		return findComponentDecl(b.docs[target], bare, true)
	}
	if c, ok := findComponentDecl(b.docs[path], bare, false); ok {
		return c, true
	}
	for _, dep := range b.GetDependencies(path) {
		if c, ok := findComponentDecl(b.docs[dep], bare, true); ok {
			return c, true
		}
	}
	return nil, false
}

func findComponentDecl(doc *ast.Document, name string, requirePublic bool) (*ast.Component, bool) {
	if doc == nil {
		return nil, false
	}
	for _, decl := range doc.Declarations {
		c, ok := decl.(*ast.Component)
		if !ok || c.Name != name {
			continue
		}
		if requirePublic && !c.Public {
			continue
		}
		return c, true
	}
	return nil, false
}

// Assets returns every AssetReference collected across all registered
// documents, in path-sorted then declaration order.
func (b *Bundle) Assets() []ast.AssetReference {
	var out []ast.AssetReference
	for _, path := range b.Paths() {
		out = append(out, b.docs[path].Assets...)
	}
	return out
}

// DiscoverSources globs root for .pc source files. It is an additive
// convenience on top of the add_document/build_dependencies contract, not a
// replacement for it: callers still parse and add each discovered path
// themselves.
func DiscoverSources(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*.pc")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(root, m)
	}
	sort.Strings(out)
	return out, nil
}
