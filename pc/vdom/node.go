package vdom

// NodeKind classifies a VNode's variant.
type NodeKind int

const (
	NodeElement NodeKind = iota
	NodeText
	NodeComment
	NodeError
)

// ErrorKind classifies why the evaluator produced an Error node in place of
// the element it was asked to render.
type ErrorKind int

const (
	ErrUnknownComponent ErrorKind = iota
	ErrUnknownVariable
	ErrSlotMismatch
	ErrNonIterable
	ErrVariantNotFound
	ErrDivideByZero
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownComponent:
		return "unknown_component"
	case ErrUnknownVariable:
		return "unknown_variable"
	case ErrSlotMismatch:
		return "slot_mismatch"
	case ErrNonIterable:
		return "non_iterable"
	case ErrVariantNotFound:
		return "variant_not_found"
	case ErrDivideByZero:
		return "divide_by_zero"
	default:
		return "unknown"
	}
}

// FrameBounds is a top-level component's canvas position and size, parsed
// from an `@frame { x, y, width, height }` annotation and editable in place
// via a SetFrameBounds mutation.
type FrameBounds struct {
	X, Y          float64
	Width, Height float64
}

// VNode is one node of an evaluated document tree. Exactly one of the
// variant-specific fields is meaningful, selected by Kind; this mirrors the
// AST's tagged-union Element shape one evaluation step later.
type VNode struct {
	Kind       NodeKind
	ID         SemanticID
	SourceSpan string // ast.Span.ID of the node this VNode was evaluated from

	// NodeElement
	Tag        string
	Attributes map[string]string
	ClassNames []string
	Children   []*VNode

	// Frame is set only on a VDocument's top-level roots whose component
	// declared an @frame annotation; nil for every other node.
	Frame *FrameBounds

	// NodeText
	Text string

	// NodeComment
	Comment string

	// NodeError
	ErrorKind    ErrorKind
	ErrorMessage string
}

// Walk calls fn for n and every descendant, depth-first pre-order.
func (n *VNode) Walk(fn func(*VNode)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// CssRule is one generated style rule, keyed by the SemanticID of the node
// it was derived from so the differ can add/remove/update rules alongside
// the nodes that own them.
type CssRule struct {
	OwnerID  SemanticID
	Selector string // e.g. ".pc-abc123" or ".pc-abc123:hover"
	// MediaQuery is the raw "@media (...)" trigger this rule is scoped to,
	// or "" if the rule applies unconditionally.
	MediaQuery string
	Properties map[string]string
	// PropertyOrder preserves declaration order for deterministic text output.
	PropertyOrder []string
}

// VDocument is the full evaluated output of one Document: one root VNode
// per public component the file declares (its own frame, if it has one)
// plus the CSS rules the whole forest depends on. It is produced fresh by
// every evaluation and never mutated in place; the differ compares two
// consecutive VDocuments to produce a Patch sequence.
type VDocument struct {
	Nodes    []*VNode
	CssRules []CssRule
}
