// Package ast defines the .pc abstract syntax tree: the node shapes every
// Parser call produces, and the recursive-descent Parser itself.
package ast

// Document is the root AST node of one parsed .pc file: the top-level
// declarations in source order, plus the asset references collected from
// its attribute values. It is replaced wholesale on re-parse and never
// mutated in place.
type Document struct {
	Path         string
	DocID        string
	Declarations []Declaration
	Assets       []AssetReference
}

// Declaration is one of Component, PublicStyle, Token, Trigger, Import, or
// Override at the top level of a Document.
type Declaration interface {
	declNode()
	SpanOf() Span
}

// Component declares a component: its variants, slots, nested overrides,
// and its single render-element body.
type Component struct {
	Span      Span
	Name      string
	Public    bool
	Frame     *FrameMeta
	Variants  []*VariantDecl
	Slots     []*SlotDecl
	Overrides []*Override
	Body      Element
}

func (*Component) declNode()        {}
func (c *Component) SpanOf() Span   { return c.Span }

// FrameMeta is the canvas-bounds annotation a `@frame { ... }` comment
// attaches to the component declaration that follows it.
type FrameMeta struct {
	Span   Span
	X, Y   float64
	Width  float64
	Height float64
}

// PublicStyle is a `public style Name { ... }` top-level declaration,
// referenceable from any file that imports this one.
type PublicStyle struct {
	Span  Span
	Name  string
	Style *StyleBlock
}

func (*PublicStyle) declNode()      {}
func (p *PublicStyle) SpanOf() Span { return p.Span }

// TokenDecl is a `token Name = expr` design-token declaration.
type TokenDecl struct {
	Span  Span
	Name  string
	Value Expression
}

func (*TokenDecl) declNode()      {}
func (t *TokenDecl) SpanOf() Span { return t.Span }

// Trigger is a top-level `trigger Name = "selector-or-@media"` declaration
// referenced by name from a component's VariantDecl.
type Trigger struct {
	Span  Span
	Name  string
	Value string
}

func (*Trigger) declNode()      {}
func (t *Trigger) SpanOf() Span { return t.Span }

// Import is an `import "path" as alias` declaration.
type Import struct {
	Span  Span
	Path  string
	Alias string
}

func (*Import) declNode()      {}
func (i *Import) SpanOf() Span { return i.Span }

// Override is a component-scoped `override Path { ... }` patch targeted at
// a descendant instance reachable from some component's render tree, or
// (at the top level) reachable from any public component.
type Override struct {
	Span       Span
	Path       []PathSegment
	Attributes map[string]Expression
	Styles     []*StyleBlock
}

func (*Override) declNode()      {}
func (o *Override) SpanOf() Span { return o.Span }

// PathSegment is one dot-separated step of an Override path: a component
// name and an optional explicit numeric index (`Card.1`).
type PathSegment struct {
	Name  string
	Index *int
}

// VariantDecl declares a named presentational state and the triggers whose
// conjunction activates it.
type VariantDecl struct {
	Span     Span
	Name     string
	Triggers []string
}

// SlotDecl declares a named insertion point on a component.
type SlotDecl struct {
	Span    Span
	Name    string
	Default Element
}

// StyleBlock is the property map attached to a Tag element, or the body of
// a public style / variant style rule.
type StyleBlock struct {
	Span       Span
	Properties map[string]Expression
	// PropertyOrder preserves declaration order for deterministic CSS output.
	PropertyOrder []string
	Extends       []string
	Variant       *VariantCombination
}

// VariantCombination is the ordered, deduplicated set of variant names a
// style block's `variant A + B` clause names. Order is declaration order
// and is the canonical key for the combination.
type VariantCombination struct {
	Names []string
}

// Element is the tagged union of renderable nodes inside a component body.
type Element interface {
	elementNode()
	SpanOf() Span
}

// Tag is a concrete DOM-shaped element: `name(attrs) { styles/children }`.
type Tag struct {
	Span       Span
	Name       string
	Attributes map[string]Expression
	Styles     []*StyleBlock
	Children   []Element
}

func (*Tag) elementNode()    {}
func (t *Tag) SpanOf() Span  { return t.Span }

// Text is a `text expr` node; Content is a literal string or a Template.
type Text struct {
	Span    Span
	Content Expression
}

func (*Text) elementNode()   {}
func (t *Text) SpanOf() Span { return t.Span }

// Comment is a source comment retained for round-tripping mutations; it
// never contributes to the evaluated VDocument.
type Comment struct {
	Span Span
	Text string
}

func (*Comment) elementNode()  {}
func (c *Comment) SpanOf() Span { return c.Span }

// Instance is a component invocation `Name(props) { insert/children }`.
type Instance struct {
	Span     Span
	Name     string
	Props    map[string]Expression
	Children []Element
}

func (*Instance) elementNode()  {}
func (i *Instance) SpanOf() Span { return i.Span }

// SlotInsert is a bare identifier in element position inside a component
// body, denoting the point where a caller's slot content is rendered.
type SlotInsert struct {
	Span Span
	Name string
}

func (*SlotInsert) elementNode()  {}
func (s *SlotInsert) SpanOf() Span { return s.Span }

// Insert is `insert name { children }` inside an Instance body, supplying
// content for one of the callee's named slots.
type Insert struct {
	Span     Span
	SlotName string
	Children []Element
}

func (*Insert) elementNode()  {}
func (i *Insert) SpanOf() Span { return i.Span }

// If is `if expr { then_body }`. The grammar has no else branch.
type If struct {
	Span      Span
	Condition Expression
	Then      []Element
}

func (*If) elementNode()  {}
func (i *If) SpanOf() Span { return i.Span }

// Repeat is `repeat item in expr (key=expr)? { body }`.
type Repeat struct {
	Span      Span
	ItemName  string
	Items     Expression
	Key       Expression // nil if no key clause
	Body      []Element
}

func (*Repeat) elementNode()  {}
func (r *Repeat) SpanOf() Span { return r.Span }

// Expression is the tagged union of value-producing AST nodes.
type Expression interface {
	exprNode()
	SpanOf() Span
}

// LiteralKind classifies a Literal expression's value.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
)

// Literal is a string, number, or bool constant.
type Literal struct {
	Span Span
	Kind LiteralKind
	Str  string
	Num  float64
	Bool bool
}

func (*Literal) exprNode()     {}
func (l *Literal) SpanOf() Span { return l.Span }

// Variable is a bare identifier reference.
type Variable struct {
	Span Span
	Name string
}

func (*Variable) exprNode()     {}
func (v *Variable) SpanOf() Span { return v.Span }

// MemberAccess is `base.path` — a chain of dotted field accesses.
type MemberAccess struct {
	Span Span
	Base Expression
	Path []string
}

func (*MemberAccess) exprNode()     {}
func (m *MemberAccess) SpanOf() Span { return m.Span }

// BinaryOp is `lhs op rhs` for one of + - * / == != < <= > >= && ||.
type BinaryOp struct {
	Span     Span
	Op       string
	LHS, RHS Expression
}

func (*BinaryOp) exprNode()     {}
func (b *BinaryOp) SpanOf() Span { return b.Span }

// Call is a named function invocation `name(args...)`.
type Call struct {
	Span Span
	Name string
	Args []Expression
}

func (*Call) exprNode()     {}
func (c *Call) SpanOf() Span { return c.Span }

// Template is a string literal containing `${expr}` interpolations, stored
// as an alternating sequence of literal and expression segments.
type Template struct {
	Span     Span
	Literals []string     // len(Literals) == len(Exprs)+1
	Exprs    []Expression
}

func (*Template) exprNode()     {}
func (t *Template) SpanOf() Span { return t.Span }

// AssetType classifies an AssetReference by the kind of media it names.
type AssetType int

const (
	AssetOther AssetType = iota
	AssetImage
	AssetFont
	AssetVideo
	AssetAudio
)

// AssetReference is a logical media reference collected while parsing.
type AssetReference struct {
	LogicalPath  string
	AssetType    AssetType
	ResolvedPath string
	SourceFile   string
}
