package document

import (
	"fmt"

	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/vdom"
)

// astNode indexes one element of a parsed document's render tree by the
// Span.ID the parser assigned it, so a mutation addressed by vdom.SemanticID
// (resolved to a Span.ID via the last evaluation's VNode.SourceSpan) can be
// mapped back to the ast.Element it was produced from.
type astNode struct {
	span   ast.Span
	el     ast.Element
	parent *astNode // nil for a component's render root
	comp   *ast.Component
}

// buildASTIndex walks every component's render tree in doc, keyed by
// Span.ID. Components sharing the same file are indexed together; a
// document never indexes anything outside its own component declarations,
// so a mutation can never reach across files through this index alone.
func buildASTIndex(doc *ast.Document) map[string]*astNode {
	idx := map[string]*astNode{}
	var walk func(el ast.Element, parent *astNode, comp *ast.Component)
	walk = func(el ast.Element, parent *astNode, comp *ast.Component) {
		if el == nil {
			return
		}
		n := &astNode{span: el.SpanOf(), el: el, parent: parent, comp: comp}
		idx[n.span.ID] = n
		for _, child := range elementChildren(el) {
			walk(child, n, comp)
		}
	}
	for _, decl := range doc.Declarations {
		comp, ok := decl.(*ast.Component)
		if !ok {
			continue
		}
		walk(comp.Body, nil, comp)
	}
	return idx
}

// indexVNodes walks every root of vdoc, keyed by SemanticID.String(), so a
// Mutation's target SemanticID can be resolved to the VNode it last
// evaluated to (and from there, via SourceSpan, to its ast.Element).
func indexVNodes(vdoc *vdom.VDocument) map[string]*vdom.VNode {
	idx := map[string]*vdom.VNode{}
	for _, root := range vdoc.Nodes {
		root.Walk(func(n *vdom.VNode) {
			idx[n.ID.String()] = n
		})
	}
	return idx
}

// elementChildren returns the mutable child-element slice el owns, or nil
// for element kinds that don't have one (Text, Comment, SlotInsert).
func elementChildren(el ast.Element) []ast.Element {
	switch e := el.(type) {
	case *ast.Tag:
		return e.Children
	case *ast.If:
		return e.Then
	case *ast.Repeat:
		return e.Body
	case *ast.Instance:
		return e.Children
	case *ast.Insert:
		return e.Children
	default:
		return nil
	}
}

// setElementChildren replaces el's child-element slice in place.
func setElementChildren(el ast.Element, children []ast.Element) {
	switch e := el.(type) {
	case *ast.Tag:
		e.Children = children
	case *ast.If:
		e.Then = children
	case *ast.Repeat:
		e.Body = children
	case *ast.Instance:
		e.Children = children
	case *ast.Insert:
		e.Children = children
	}
}

// isDescendantOrSelf reports whether node is ancestor itself or lives
// anywhere beneath it in the render tree, walking up node's parent chain.
func isDescendantOrSelf(ancestor, node *astNode) bool {
	for n := node; n != nil; n = n.parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// rootOf returns the render-root astNode (parent == nil) that owns node.
func rootOf(node *astNode) *astNode {
	for node.parent != nil {
		node = node.parent
	}
	return node
}

// parseElementFragment parses a single element's .pc source in isolation,
// as InsertElement's well-formed-AST-fragment precondition requires. It
// wraps the fragment in a throwaway component so the existing recursive
// descent parser can be reused unmodified.
func parseElementFragment(src string) (ast.Element, error) {
	wrapped := fmt.Sprintf("component __mutation_fragment__ { render div { %s } }", src)
	doc, err := ast.Parse("__fragment__.pc", []byte(wrapped))
	if err != nil {
		return nil, err
	}
	comp, ok := doc.Declarations[0].(*ast.Component)
	if !ok {
		return nil, fmt.Errorf("fragment did not parse to a component body")
	}
	wrapper, ok := comp.Body.(*ast.Tag)
	if !ok || len(wrapper.Children) != 1 {
		return nil, fmt.Errorf("fragment must be exactly one element")
	}
	return wrapper.Children[0], nil
}
