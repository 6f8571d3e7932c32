package ast

import "testing"

func TestParseSimpleButton(t *testing.T) {
	src := `public component Button {
  render button {
    style { padding: 8px }
    text "Click me"
  }
}`
	doc, err := Parse("button.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Declarations) != 1 {
		t.Fatalf("got %d declarations, want 1", len(doc.Declarations))
	}
	comp, ok := doc.Declarations[0].(*Component)
	if !ok {
		t.Fatalf("declaration is %T, want *Component", doc.Declarations[0])
	}
	if comp.Name != "Button" || !comp.Public {
		t.Fatalf("got Name=%q Public=%v", comp.Name, comp.Public)
	}
	tag, ok := comp.Body.(*Tag)
	if !ok {
		t.Fatalf("body is %T, want *Tag", comp.Body)
	}
	if tag.Name != "button" {
		t.Fatalf("got tag name %q", tag.Name)
	}
	if len(tag.Styles) != 1 {
		t.Fatalf("got %d style blocks, want 1", len(tag.Styles))
	}
	if len(tag.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(tag.Children))
	}
	text, ok := tag.Children[0].(*Text)
	if !ok {
		t.Fatalf("child is %T, want *Text", tag.Children[0])
	}
	lit, ok := text.Content.(*Literal)
	if !ok || lit.Kind != LitString || lit.Str != "Click me" {
		t.Fatalf("got text content %#v", text.Content)
	}
}

func TestParseKeyedRepeat(t *testing.T) {
	src := `component List {
  render div {
    repeat item in items key = item.id {
      text item.label
    }
  }
}`
	doc, err := Parse("list.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	div := comp.Body.(*Tag)
	rep, ok := div.Children[0].(*Repeat)
	if !ok {
		t.Fatalf("child is %T, want *Repeat", div.Children[0])
	}
	if rep.ItemName != "item" {
		t.Fatalf("got item name %q", rep.ItemName)
	}
	if rep.Key == nil {
		t.Fatal("expected key expression")
	}
	member, ok := rep.Key.(*MemberAccess)
	if !ok {
		t.Fatalf("key is %T, want *MemberAccess", rep.Key)
	}
	if len(member.Path) != 1 || member.Path[0] != "id" {
		t.Fatalf("got key path %v", member.Path)
	}
}

func TestParseSlotDefaultAndInsert(t *testing.T) {
	src := `component Card {
  slot header {
    text "Untitled"
  }
  render div {
    header
  }
}`
	doc, err := Parse("card.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	if len(comp.Slots) != 1 || comp.Slots[0].Name != "header" {
		t.Fatalf("got slots %#v", comp.Slots)
	}
	if comp.Slots[0].Default == nil {
		t.Fatal("expected default slot body")
	}
	div := comp.Body.(*Tag)
	insert, ok := div.Children[0].(*SlotInsert)
	if !ok {
		t.Fatalf("child is %T, want *SlotInsert", div.Children[0])
	}
	if insert.Name != "header" {
		t.Fatalf("got slot insert name %q", insert.Name)
	}
}

func TestParseInstanceWithInsert(t *testing.T) {
	src := `component Page {
  render div {
    Card(title = "Hello") {
      insert header {
        text "Custom header"
      }
    }
  }
}`
	doc, err := Parse("page.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	div := comp.Body.(*Tag)
	inst, ok := div.Children[0].(*Instance)
	if !ok {
		t.Fatalf("child is %T, want *Instance", div.Children[0])
	}
	if inst.Name != "Card" {
		t.Fatalf("got instance name %q", inst.Name)
	}
	if len(inst.Props) != 1 {
		t.Fatalf("got %d props, want 1", len(inst.Props))
	}
	if len(inst.Children) != 1 {
		t.Fatalf("got %d children, want 1", len(inst.Children))
	}
	insert, ok := inst.Children[0].(*Insert)
	if !ok {
		t.Fatalf("child is %T, want *Insert", inst.Children[0])
	}
	if insert.SlotName != "header" {
		t.Fatalf("got slot name %q", insert.SlotName)
	}
}

func TestParseConditional(t *testing.T) {
	src := `component Banner {
  render div {
    if visible {
      text "shown"
    }
  }
}`
	doc, err := Parse("banner.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	div := comp.Body.(*Tag)
	ifEl, ok := div.Children[0].(*If)
	if !ok {
		t.Fatalf("child is %T, want *If", div.Children[0])
	}
	if _, ok := ifEl.Condition.(*Variable); !ok {
		t.Fatalf("condition is %T, want *Variable", ifEl.Condition)
	}
	if len(ifEl.Then) != 1 {
		t.Fatalf("got %d then elements, want 1", len(ifEl.Then))
	}
}

func TestParseStyleExtendsAndVariant(t *testing.T) {
	src := `public style fontRegular {
  font-family: Helvetica
}

component Label {
  variant hovered {
    trigger ":hover"
  }
  render span {
    style extends fontRegular { color: black }
    style variant hovered { color: blue }
  }
}`
	doc, err := Parse("label.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Declarations) != 2 {
		t.Fatalf("got %d declarations, want 2", len(doc.Declarations))
	}
	pub, ok := doc.Declarations[0].(*PublicStyle)
	if !ok || pub.Name != "fontRegular" {
		t.Fatalf("got %#v", doc.Declarations[0])
	}
	comp := doc.Declarations[1].(*Component)
	if len(comp.Variants) != 1 || comp.Variants[0].Name != "hovered" {
		t.Fatalf("got variants %#v", comp.Variants)
	}
	if comp.Variants[0].Triggers[0] != ":hover" {
		t.Fatalf("got triggers %#v", comp.Variants[0].Triggers)
	}
	span := comp.Body.(*Tag)
	if len(span.Styles) != 2 {
		t.Fatalf("got %d style blocks, want 2", len(span.Styles))
	}
	if len(span.Styles[0].Extends) != 1 || span.Styles[0].Extends[0] != "fontRegular" {
		t.Fatalf("got extends %#v", span.Styles[0].Extends)
	}
	if span.Styles[1].Variant == nil || span.Styles[1].Variant.Names[0] != "hovered" {
		t.Fatalf("got variant combination %#v", span.Styles[1].Variant)
	}
}

func TestParseStyleExtendsQualifiedName(t *testing.T) {
	src := `import "tokens.pc" as t
component Label {
  render span {
    style extends t.fontRegular { color: black }
  }
}`
	doc, err := Parse("label.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[1].(*Component)
	span := comp.Body.(*Tag)
	if len(span.Styles[0].Extends) != 1 || span.Styles[0].Extends[0] != "t.fontRegular" {
		t.Fatalf("got extends %#v", span.Styles[0].Extends)
	}
}

func TestParseOverridePath(t *testing.T) {
	src := `component Page {
  render div {
    List(items = rows)
  }
}

override List.items.0.label {
  text = "patched"
}`
	doc, err := Parse("page.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var ov *Override
	for _, d := range doc.Declarations {
		if o, ok := d.(*Override); ok {
			ov = o
		}
	}
	if ov == nil {
		t.Fatal("expected an Override declaration")
	}
	if len(ov.Path) != 3 {
		t.Fatalf("got %d path segments, want 3: %#v", len(ov.Path), ov.Path)
	}
	if ov.Path[0].Name != "List" || ov.Path[0].Index != nil {
		t.Fatalf("segment 0 = %#v", ov.Path[0])
	}
	if ov.Path[1].Name != "items" || ov.Path[1].Index == nil || *ov.Path[1].Index != 0 {
		t.Fatalf("segment 1 = %#v", ov.Path[1])
	}
	if ov.Path[2].Name != "label" {
		t.Fatalf("segment 2 = %#v", ov.Path[2])
	}
}

func TestParseTemplateExpression(t *testing.T) {
	src := "component Greeting {\n  render div {\n    text \"Hello, ${name}!\"\n  }\n}"
	doc, err := Parse("greeting.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	div := comp.Body.(*Tag)
	text := div.Children[0].(*Text)
	tmpl, ok := text.Content.(*Template)
	if !ok {
		t.Fatalf("content is %T, want *Template", text.Content)
	}
	if len(tmpl.Exprs) != 1 {
		t.Fatalf("got %d interpolated exprs, want 1", len(tmpl.Exprs))
	}
	v, ok := tmpl.Exprs[0].(*Variable)
	if !ok || v.Name != "name" {
		t.Fatalf("got interpolated expr %#v", tmpl.Exprs[0])
	}
	if tmpl.Literals[0] != "Hello, " || tmpl.Literals[1] != "!" {
		t.Fatalf("got literals %#v", tmpl.Literals)
	}
}

func TestParseBinaryExpressionPrecedence(t *testing.T) {
	src := `component Calc {
  render div {
    if a + b * c == d {
      text "match"
    }
  }
}`
	doc, err := Parse("calc.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	div := comp.Body.(*Tag)
	ifEl := div.Children[0].(*If)
	eq, ok := ifEl.Condition.(*BinaryOp)
	if !ok || eq.Op != "==" {
		t.Fatalf("top-level op is %#v, want ==", ifEl.Condition)
	}
	add, ok := eq.LHS.(*BinaryOp)
	if !ok || add.Op != "+" {
		t.Fatalf("lhs is %#v, want +", eq.LHS)
	}
	mul, ok := add.RHS.(*BinaryOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("rhs of + is %#v, want *", add.RHS)
	}
}

func TestParseFrameMeta(t *testing.T) {
	src := `@frame { x: 0, y: 0, width: 320, height: 64 }
public component Button {
  render button { text "Go" }
}`
	doc, err := Parse("button.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	comp := doc.Declarations[0].(*Component)
	if comp.Frame == nil {
		t.Fatal("expected frame metadata")
	}
	if comp.Frame.Width != 320 || comp.Frame.Height != 64 {
		t.Fatalf("got frame %#v", comp.Frame)
	}
}

func TestParseSyntaxErrorHasSpan(t *testing.T) {
	src := `component Broken {
  render button {
`
	_, err := Parse("broken.pc", []byte(src))
	if err == nil {
		t.Fatal("expected parse error")
	}
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error is %T, want *ParseError", err)
	}
	if pe.Message == "" {
		t.Fatal("expected a non-empty error message")
	}
}

func TestSpanIDDeterminism(t *testing.T) {
	src := []byte(`component A { render div { text "x" } }`)
	doc1, err := Parse("a.pc", src)
	if err != nil {
		t.Fatalf("parse 1: %v", err)
	}
	doc2, err := Parse("a.pc", src)
	if err != nil {
		t.Fatalf("parse 2: %v", err)
	}
	comp1 := doc1.Declarations[0].(*Component)
	comp2 := doc2.Declarations[0].(*Component)
	if comp1.Span.ID != comp2.Span.ID {
		t.Fatalf("span ids differ across identical parses: %q vs %q", comp1.Span.ID, comp2.Span.ID)
	}
	if comp1.Span.ID == comp1.Body.SpanOf().ID {
		t.Fatal("distinct spans produced the same id")
	}
}

func TestSpanIDDiffersAcrossDocuments(t *testing.T) {
	src := []byte(`component A { render div { text "x" } }`)
	docA, err := Parse("a.pc", src)
	if err != nil {
		t.Fatalf("parse a: %v", err)
	}
	docB, err := Parse("b.pc", src)
	if err != nil {
		t.Fatalf("parse b: %v", err)
	}
	if docA.Declarations[0].SpanOf().ID == docB.Declarations[0].SpanOf().ID {
		t.Fatal("identical byte ranges in different documents produced the same span id")
	}
}

func TestParseAssetCollection(t *testing.T) {
	src := `component Hero {
  render img(src = image("hero.png")) { }
}`
	doc, err := Parse("hero.pc", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(doc.Assets))
	}
	if doc.Assets[0].LogicalPath != "hero.png" || doc.Assets[0].AssetType != AssetImage {
		t.Fatalf("got asset %#v", doc.Assets[0])
	}
}
