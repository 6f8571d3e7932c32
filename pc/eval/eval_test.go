package eval

import (
	"testing"

	"github.com/c360studio/pcforge/pc/ast"
	"github.com/c360studio/pcforge/pc/bundle"
	"github.com/c360studio/pcforge/pc/vdom"
)

type noopFS struct{}

func (noopFS) Exists(string) bool             { return true }
func (noopFS) Canonicalize(p string) (string, error) { return p, nil }

func newBundle(t *testing.T, docs map[string]string) *bundle.Bundle {
	t.Helper()
	b := bundle.New(noopFS{})
	for path, src := range docs {
		doc, err := ast.Parse(path, []byte(src))
		if err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
		b.AddDocument(doc)
	}
	if err := b.BuildDependencies(); err != nil {
		t.Fatalf("build dependencies: %v", err)
	}
	return b
}

func TestEvaluateSimpleButton(t *testing.T) {
	b := newBundle(t, map[string]string{
		"button.pc": `public component Button {
  render button { text "Click me" }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("button.pc", "Button", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if doc.Nodes[0].Tag != "button" {
		t.Fatalf("got root tag %q", doc.Nodes[0].Tag)
	}
	if len(doc.Nodes[0].Children) != 1 || doc.Nodes[0].Children[0].Text != "Click me" {
		t.Fatalf("got children %#v", doc.Nodes[0].Children)
	}
}

func TestEvaluatePropsAndExpression(t *testing.T) {
	b := newBundle(t, map[string]string{
		"greet.pc": `public component Greeting {
  render div { text "Hello, ${name}!" }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("greet.pc", "Greeting", map[string]Value{"name": "Ada"}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if doc.Nodes[0].Children[0].Text != "Hello, Ada!" {
		t.Fatalf("got text %q", doc.Nodes[0].Children[0].Text)
	}
}

func TestEvaluateConditionalElision(t *testing.T) {
	b := newBundle(t, map[string]string{
		"banner.pc": `public component Banner {
  render div {
    if visible { text "shown" }
  }
}`,
	})
	ev := New(b, false)

	visibleDoc, _ := ev.EvaluateComponent("banner.pc", "Banner", map[string]Value{"visible": true}, nil)
	if len(visibleDoc.Nodes[0].Children) != 1 {
		t.Fatalf("expected 1 child when visible, got %d", len(visibleDoc.Nodes[0].Children))
	}

	hiddenDoc, _ := ev.EvaluateComponent("banner.pc", "Banner", map[string]Value{"visible": false}, nil)
	if len(hiddenDoc.Nodes[0].Children) != 0 {
		t.Fatalf("expected 0 children when hidden, got %d", len(hiddenDoc.Nodes[0].Children))
	}
}

func TestEvaluateKeyedRepeat(t *testing.T) {
	b := newBundle(t, map[string]string{
		"list.pc": `public component List {
  render ul {
    repeat row in rows key = row.id { text row.label }
  }
}`,
	})
	ev := New(b, false)
	rows := []Value{
		map[string]Value{"id": "a", "label": "First"},
		map[string]Value{"id": "b", "label": "Second"},
	}
	doc, err := ev.EvaluateComponent("list.pc", "List", map[string]Value{"rows": rows}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(doc.Nodes[0].Children) != 2 {
		t.Fatalf("got %d children, want 2", len(doc.Nodes[0].Children))
	}
	if doc.Nodes[0].Children[0].Text != "First" || doc.Nodes[0].Children[1].Text != "Second" {
		t.Fatalf("got children %#v", doc.Nodes[0].Children)
	}
	id0 := doc.Nodes[0].Children[0].ID.String()
	id1 := doc.Nodes[0].Children[1].ID.String()
	if id0 == id1 {
		t.Fatal("keyed repeat items produced identical semantic ids")
	}
}

func TestEvaluateSlotDefaultAndOverride(t *testing.T) {
	b := newBundle(t, map[string]string{
		"card.pc": `public component Card {
  slot header { text "Untitled" }
  render div { header }
}`,
		"page.pc": `
import "card.pc"
public component Page {
  render div {
    Card() {
      insert header { text "Custom" }
    }
  }
}`,
	})
	ev := New(b, false)

	cardDoc, err := ev.EvaluateComponent("card.pc", "Card", nil, nil)
	if err != nil {
		t.Fatalf("evaluate card: %v", err)
	}
	if cardDoc.Nodes[0].Children[0].Text != "Untitled" {
		t.Fatalf("expected default slot content, got %q", cardDoc.Nodes[0].Children[0].Text)
	}

	pageDoc, err := ev.EvaluateComponent("page.pc", "Page", nil, nil)
	if err != nil {
		t.Fatalf("evaluate page: %v", err)
	}
	cardNode := pageDoc.Nodes[0].Children[0]
	if cardNode.Children[0].Text != "Custom" {
		t.Fatalf("expected inserted slot content, got %q", cardNode.Children[0].Text)
	}
}

func TestEvaluateUnknownVariableProducesErrorNode(t *testing.T) {
	b := newBundle(t, map[string]string{
		"broken.pc": `public component Broken {
  render div { text missing }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("broken.pc", "Broken", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	node := doc.Nodes[0].Children[0]
	if node.Kind != vdom.NodeError || node.ErrorKind != vdom.ErrUnknownVariable {
		t.Fatalf("got node %#v", node)
	}
}

func TestEvaluateUnknownComponentProducesErrorNode(t *testing.T) {
	b := newBundle(t, map[string]string{
		"page.pc": `public component Page {
  render div { Missing() }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("page.pc", "Page", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	node := doc.Nodes[0].Children[0]
	if node.Kind != vdom.NodeError || node.ErrorKind != vdom.ErrUnknownComponent {
		t.Fatalf("got node %#v", node)
	}
}

func TestEvaluateDivideByZeroProducesErrorNode(t *testing.T) {
	b := newBundle(t, map[string]string{
		"calc.pc": `public component Calc {
  render div { text 1 / 0 }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("calc.pc", "Calc", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	node := doc.Nodes[0].Children[0]
	if node.Kind != vdom.NodeError || node.ErrorKind != vdom.ErrDivideByZero {
		t.Fatalf("got node %#v", node)
	}
}

func TestEvaluateVariantStyleGating(t *testing.T) {
	b := newBundle(t, map[string]string{
		"button.pc": `public component Button {
  variant hovered { trigger ":hover" }
  render button {
    style { color: black }
    style variant hovered { color: blue }
    text "Go"
  }
}`,
	})
	ev := New(b, false)

	plain, err := ev.EvaluateComponent("button.pc", "Button", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(plain.CssRules) != 1 {
		t.Fatalf("got %d css rules without active variant, want 1", len(plain.CssRules))
	}

	hovered, err := ev.EvaluateComponent("button.pc", "Button", nil, map[string]bool{"hovered": true})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(hovered.CssRules) != 2 {
		t.Fatalf("got %d css rules with hovered active, want 2", len(hovered.CssRules))
	}
}

func TestEvaluateStyleExtends(t *testing.T) {
	b := newBundle(t, map[string]string{
		"label.pc": `
public style fontRegular { font-family: Helvetica }
public component Label {
  render span {
    style extends fontRegular { color: black }
  }
}`,
	})
	ev := New(b, false)
	doc, err := ev.EvaluateComponent("label.pc", "Label", nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(doc.CssRules) != 1 {
		t.Fatalf("got %d css rules, want 1", len(doc.CssRules))
	}
	rule := doc.CssRules[0]
	if rule.Properties["font-family"] != "Helvetica" || rule.Properties["color"] != "black" {
		t.Fatalf("got properties %#v", rule.Properties)
	}
}
