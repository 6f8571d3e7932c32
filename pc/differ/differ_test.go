package differ

import (
	"testing"

	"github.com/c360studio/pcforge/pc/vdom"
)

func id(name string) vdom.SemanticID {
	return vdom.SemanticID{}.Child(vdom.SemanticSegment{Kind: vdom.SegElement, Name: name})
}

func TestDiffInitialize(t *testing.T) {
	next := &vdom.VDocument{Nodes: []*vdom.VNode{{Kind: vdom.NodeElement, ID: id("div"), Tag: "div"}}}
	patches := Diff(nil, next)
	if len(patches) != 1 || patches[0].Kind != vdom.PatchInitialize || patches[0].Doc != next {
		t.Fatalf("got %#v", patches)
	}
}

func TestDiffTextUpdate(t *testing.T) {
	prev := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{{Kind: vdom.NodeText, ID: id("text"), Text: "old"}},
	}}}
	next := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{{Kind: vdom.NodeText, ID: id("text"), Text: "new"}},
	}}}
	patches := Diff(prev, next)
	if len(patches) != 1 || patches[0].Kind != vdom.PatchUpdateText || patches[0].Text != "new" {
		t.Fatalf("got %#v", patches)
	}
}

func TestDiffIdentityPreservingReorder(t *testing.T) {
	a := &vdom.VNode{Kind: vdom.NodeText, ID: id("a"), Text: "a"}
	bNode := &vdom.VNode{Kind: vdom.NodeText, ID: id("b"), Text: "b"}

	prev := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{a, bNode},
	}}}
	next := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{bNode, a},
	}}}

	patches := Diff(prev, next)
	for _, p := range patches {
		if p.Kind == vdom.PatchRemoveNode || p.Kind == vdom.PatchCreateNode {
			t.Fatalf("reorder of identical nodes should not remove/create, got %#v", p)
		}
	}
	var moves int
	for _, p := range patches {
		if p.Kind == vdom.PatchMoveNode {
			moves++
		}
	}
	if moves == 0 {
		t.Fatal("expected at least one MoveNode patch")
	}
}

func TestDiffCreateAndRemove(t *testing.T) {
	prev := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{{Kind: vdom.NodeText, ID: id("old"), Text: "gone"}},
	}}}
	next := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Children: []*vdom.VNode{{Kind: vdom.NodeText, ID: id("new"), Text: "here"}},
	}}}
	patches := Diff(prev, next)

	var hasRemove, hasCreate bool
	for _, p := range patches {
		if p.Kind == vdom.PatchRemoveNode {
			hasRemove = true
		}
		if p.Kind == vdom.PatchCreateNode {
			hasCreate = true
		}
	}
	if !hasRemove || !hasCreate {
		t.Fatalf("expected both remove and create, got %#v", patches)
	}
}

func TestDiffMinimalityNoChangeNoPatches(t *testing.T) {
	doc := &vdom.VDocument{Nodes: []*vdom.VNode{{
		Kind: vdom.NodeElement, ID: id("div"), Tag: "div",
		Attributes: map[string]string{"class": "x"},
		Children:   []*vdom.VNode{{Kind: vdom.NodeText, ID: id("t"), Text: "same"}},
	}}}
	patches := Diff(doc, doc)
	if len(patches) != 0 {
		t.Fatalf("expected no patches for an unchanged document, got %#v", patches)
	}
}

func TestDiffStyleRuleAddAndRemove(t *testing.T) {
	prev := &vdom.VDocument{
		Nodes:    []*vdom.VNode{{Kind: vdom.NodeElement, ID: id("div"), Tag: "div"}},
		CssRules: []vdom.CssRule{{Selector: ".old", Properties: map[string]string{"color": "red"}}},
	}
	next := &vdom.VDocument{
		Nodes:    []*vdom.VNode{{Kind: vdom.NodeElement, ID: id("div"), Tag: "div"}},
		CssRules: []vdom.CssRule{{Selector: ".new", Properties: map[string]string{"color": "blue"}}},
	}
	patches := Diff(prev, next)
	var hasAdd, hasRemove bool
	for _, p := range patches {
		if p.Kind == vdom.PatchAddStyleRule {
			hasAdd = true
		}
		if p.Kind == vdom.PatchRemoveStyleRule {
			hasRemove = true
		}
	}
	if !hasAdd || !hasRemove {
		t.Fatalf("expected both add and remove style rule patches, got %#v", patches)
	}
}

func TestDiffMultiRootMatchesByID(t *testing.T) {
	prev := &vdom.VDocument{Nodes: []*vdom.VNode{
		{Kind: vdom.NodeElement, ID: id("a"), Tag: "div"},
		{Kind: vdom.NodeElement, ID: id("b"), Tag: "div"},
	}}
	next := &vdom.VDocument{Nodes: []*vdom.VNode{
		{Kind: vdom.NodeElement, ID: id("b"), Tag: "div"},
		{Kind: vdom.NodeElement, ID: id("c"), Tag: "div"},
	}}
	patches := Diff(prev, next)

	var hasRemoveA, hasCreateC bool
	for _, p := range patches {
		if p.Kind == vdom.PatchRemoveNode && p.ID.String() == id("a").String() {
			hasRemoveA = true
		}
		if p.Kind == vdom.PatchCreateNode && p.ID.String() == id("c").String() {
			hasCreateC = true
		}
	}
	if !hasRemoveA || !hasCreateC {
		t.Fatalf("expected root a removed and root c created, got %#v", patches)
	}
}

func TestDiffFrameBoundsChange(t *testing.T) {
	prev := &vdom.VDocument{Nodes: []*vdom.VNode{
		{Kind: vdom.NodeElement, ID: id("a"), Tag: "div", Frame: &vdom.FrameBounds{Width: 100, Height: 100}},
	}}
	next := &vdom.VDocument{Nodes: []*vdom.VNode{
		{Kind: vdom.NodeElement, ID: id("a"), Tag: "div", Frame: &vdom.FrameBounds{Width: 200, Height: 100}},
	}}
	patches := Diff(prev, next)
	if len(patches) != 1 || patches[0].Kind != vdom.PatchUpdateFrame || patches[0].Frame.Width != 200 {
		t.Fatalf("got %#v", patches)
	}
}
