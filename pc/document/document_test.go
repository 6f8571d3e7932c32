package document

import (
	"strings"
	"testing"

	"github.com/c360studio/pcforge/pc/bundle"
	"github.com/c360studio/pcforge/pc/eval"
	"github.com/c360studio/pcforge/pc/vdom"
)

type noopFS struct{}

func (noopFS) Exists(string) bool                    { return true }
func (noopFS) Canonicalize(p string) (string, error) { return p, nil }

func findText(nodes []*vdom.VNode) *vdom.VNode {
	var found *vdom.VNode
	for _, root := range nodes {
		root.Walk(func(n *vdom.VNode) {
			if found == nil && n.Kind == vdom.NodeText {
				found = n
			}
		})
	}
	return found
}

func TestDocumentApplyMutationReparsesAndEvaluates(t *testing.T) {
	b := bundle.New(noopFS{})
	src := `public component Button {
  render button { text "Click me" }
}`
	doc, err := New("button.pc", src, b)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	if doc.ParseError() != nil {
		t.Fatalf("unexpected parse error: %v", doc.ParseError())
	}

	ev := eval.New(b, false)
	patches, err := doc.Evaluate(ev, "Button", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(patches) != 1 {
		t.Fatalf("expected a single initialize patch, got %d", len(patches))
	}

	vdoc, err := ev.EvaluateDocument("button.pc")
	if err != nil {
		t.Fatalf("evaluate document: %v", err)
	}
	textNode := findText(vdoc.Nodes)
	if textNode == nil {
		t.Fatal("expected a text node")
	}

	result, err := doc.ApplyMutation(ev, Mutation{ID: "m1", Kind: MutUpdateText, Node: textNode.ID, Content: "Submit"})
	if err != nil {
		t.Fatalf("apply mutation: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error %v", result.Error)
	}
	if result.Version != 1 {
		t.Fatalf("expected version 1, got %d", result.Version)
	}
	if doc.ParseError() != nil {
		t.Fatalf("unexpected parse error after apply: %v", doc.ParseError())
	}

	text, err := doc.Text()
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if !strings.Contains(text, "Submit") {
		t.Fatalf("expected source to contain the updated text, got %q", text)
	}

	patches, err = doc.Evaluate(ev, "Button", nil, nil)
	if err != nil {
		t.Fatalf("evaluate after apply: %v", err)
	}
	if len(patches) == 0 {
		t.Fatal("expected patches after text change")
	}
}

func TestApplyMutationRejectsUnknownTarget(t *testing.T) {
	b := bundle.New(noopFS{})
	doc, err := New("a.pc", `public component A { render div { } }`, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ev := eval.New(b, false)

	result, err := doc.ApplyMutation(ev, Mutation{ID: "m1", Kind: MutUpdateText, Node: vdom.SemanticID{}, Content: "x"})
	if err != nil {
		t.Fatalf("apply mutation: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection for a node that does not exist")
	}
	if result.Error.Kind != InvalidTarget {
		t.Fatalf("expected InvalidTarget, got %v", result.Error.Kind)
	}
}

func TestApplyMutationRejectsRemovingRenderRoot(t *testing.T) {
	b := bundle.New(noopFS{})
	doc, err := New("a.pc", `public component A { render div { text "hi" } }`, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ev := eval.New(b, false)
	vdoc, err := ev.EvaluateDocument("a.pc")
	if err != nil {
		t.Fatalf("evaluate document: %v", err)
	}

	result, err := doc.ApplyMutation(ev, Mutation{ID: "m1", Kind: MutRemoveNode, Node: vdoc.Nodes[0].ID})
	if err != nil {
		t.Fatalf("apply mutation: %v", err)
	}
	if result.Success {
		t.Fatal("expected rejection for removing a render root")
	}
	if result.Error.Kind != InvalidRemoval {
		t.Fatalf("expected InvalidRemoval, got %v", result.Error.Kind)
	}
}

func TestEditSessionRebaseOnReject(t *testing.T) {
	b := bundle.New(noopFS{})
	src := `public component A {
  render div {
    text "one"
  }
}`
	doc, err := New("a.pc", src, b)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ev := eval.New(b, false)
	session := NewEditSession(doc, ev)

	vdoc, err := ev.EvaluateDocument("a.pc")
	if err != nil {
		t.Fatalf("evaluate document: %v", err)
	}
	textNode := findText(vdoc.Nodes)
	if textNode == nil {
		t.Fatal("expected a text node")
	}

	seq1, err := session.Propose(Mutation{ID: "m1", Kind: MutUpdateText, Node: textNode.ID, Content: "two"})
	if err != nil {
		t.Fatalf("propose 1: %v", err)
	}

	dropped := session.Reject(seq1)
	if len(dropped) != 0 {
		t.Fatalf("expected no pending mutations left to rebase, dropped %v", dropped)
	}
	if len(session.Pending()) != 0 {
		t.Fatalf("expected 0 pending mutations after reject, got %d", len(session.Pending()))
	}
}
