// Package differ computes the patch sequence between two evaluations of
// the same document, keyed by vdom.SemanticID rather than tree position:
// a node that moves among siblings but keeps its identity is a MoveNode,
// never a delete/insert pair.
package differ

import (
	"reflect"
	"sort"

	"github.com/c360studio/pcforge/pc/vdom"
)

// Diff computes the patches that turn prev into next. A nil prev (or one
// with no roots yet) means this is the first evaluation for the subscriber:
// Diff returns a single PatchInitialize carrying the whole VDocument.
func Diff(prev, next *vdom.VDocument) []vdom.Patch {
	if prev == nil || len(prev.Nodes) == 0 {
		if next == nil || len(next.Nodes) == 0 {
			return nil
		}
		return []vdom.Patch{{Kind: vdom.PatchInitialize, Doc: next}}
	}
	if next == nil || len(next.Nodes) == 0 {
		var patches []vdom.Patch
		for _, n := range prev.Nodes {
			patches = append(patches, vdom.Patch{Kind: vdom.PatchRemoveNode, ID: n.ID})
		}
		return patches
	}

	var patches []vdom.Patch
	diffChildren(vdom.SemanticID{}, prev.Nodes, next.Nodes, &patches)
	patches = append(patches, diffCSS(prev.CssRules, next.CssRules)...)
	return patches
}

func diffNode(parentID vdom.SemanticID, prev, next *vdom.VNode, out *[]vdom.Patch) {
	if prev.ID.String() != next.ID.String() || prev.Kind != next.Kind || (prev.Kind == vdom.NodeElement && prev.Tag != next.Tag) {
		*out = append(*out, vdom.Patch{Kind: vdom.PatchReplaceNode, ID: next.ID, ParentID: parentID, Node: next})
		return
	}

	switch next.Kind {
	case vdom.NodeText:
		if prev.Text != next.Text {
			*out = append(*out, vdom.Patch{Kind: vdom.PatchUpdateText, ID: next.ID, Text: next.Text})
		}
		return
	case vdom.NodeError:
		if prev.ErrorKind != next.ErrorKind || prev.ErrorMessage != next.ErrorMessage {
			*out = append(*out, vdom.Patch{Kind: vdom.PatchReplaceNode, ID: next.ID, ParentID: parentID, Node: next})
		}
		return
	case vdom.NodeComment:
		return
	}

	if !frameEqual(prev.Frame, next.Frame) {
		*out = append(*out, vdom.Patch{Kind: vdom.PatchUpdateFrame, ID: next.ID, Frame: next.Frame})
	}

	if !reflect.DeepEqual(prev.Attributes, next.Attributes) {
		removed := attrsRemoved(prev.Attributes, next.Attributes)
		*out = append(*out, vdom.Patch{
			Kind: vdom.PatchUpdateAttributes, ID: next.ID,
			Attributes: next.Attributes, RemovedAttrs: removed,
		})
	}
	if !stringsEqual(prev.ClassNames, next.ClassNames) {
		*out = append(*out, vdom.Patch{Kind: vdom.PatchUpdateStyles, ID: next.ID, ClassNames: next.ClassNames})
	}

	diffChildren(next.ID, prev.Children, next.Children, out)
}

// diffChildren matches children across the two sibling lists by
// SemanticID, not position. Matched pairs recurse; unmatched prev children
// are removed; unmatched next children are created; matched pairs whose
// index changed emit a MoveNode in addition to whatever content patches
// their subtree needs.
func diffChildren(parentID vdom.SemanticID, prev, next []*vdom.VNode, out *[]vdom.Patch) {
	prevByID := map[string]*vdom.VNode{}
	prevIndex := map[string]int{}
	for i, n := range prev {
		key := n.ID.String()
		prevByID[key] = n
		prevIndex[key] = i
	}
	nextByID := map[string]*vdom.VNode{}
	for _, n := range next {
		nextByID[n.ID.String()] = n
	}

	for _, n := range prev {
		key := n.ID.String()
		if _, ok := nextByID[key]; !ok {
			*out = append(*out, vdom.Patch{Kind: vdom.PatchRemoveNode, ID: n.ID, ParentID: parentID})
		}
	}

	for i, n := range next {
		key := n.ID.String()
		old, ok := prevByID[key]
		if !ok {
			*out = append(*out, vdom.Patch{Kind: vdom.PatchCreateNode, ID: n.ID, ParentID: parentID, Node: n, NewIndex: i})
			continue
		}
		if prevIndex[key] != i {
			*out = append(*out, vdom.Patch{Kind: vdom.PatchMoveNode, ID: n.ID, ParentID: parentID, NewIndex: i})
		}
		diffNode(parentID, old, n, out)
	}
}

func frameEqual(a, b *vdom.FrameBounds) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func attrsRemoved(prev, next map[string]string) []string {
	var out []string
	for k := range prev {
		if _, ok := next[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffCSS compares two CssRule sets keyed by media query plus selector, the
// same way diffChildren compares node lists by SemanticID.
func diffCSS(prev, next []vdom.CssRule) []vdom.Patch {
	key := func(r vdom.CssRule) string { return r.MediaQuery + "|" + r.Selector }

	prevByKey := map[string]vdom.CssRule{}
	for _, r := range prev {
		prevByKey[key(r)] = r
	}
	nextByKey := map[string]vdom.CssRule{}
	for _, r := range next {
		nextByKey[key(r)] = r
	}

	var patches []vdom.Patch
	for _, r := range prev {
		if _, ok := nextByKey[key(r)]; !ok {
			patches = append(patches, vdom.Patch{Kind: vdom.PatchRemoveStyleRule, ID: r.OwnerID, Rule: r})
		}
	}
	for _, r := range next {
		old, ok := prevByKey[key(r)]
		if !ok || !reflect.DeepEqual(old.Properties, r.Properties) {
			patches = append(patches, vdom.Patch{Kind: vdom.PatchAddStyleRule, ID: r.OwnerID, Rule: r})
		}
	}
	return patches
}
