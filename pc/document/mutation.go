package document

import "github.com/c360studio/pcforge/pc/vdom"

// MutationKind classifies a semantic document edit. Every kind targets a
// node by vdom.SemanticID (or, for InsertElement, a parent SemanticID) —
// never a raw character offset — matching the Non-goal that rules out
// character-level source merging: a mutation always round-trips through
// the AST, never a blind text splice against an arbitrary position.
type MutationKind int

const (
	MutMoveElement MutationKind = iota
	MutUpdateText
	MutSetInlineStyle
	MutDeleteInlineStyle
	MutSetAttribute
	MutRemoveNode
	MutInsertElement
	MutSetFrameBounds
)

func (k MutationKind) String() string {
	switch k {
	case MutMoveElement:
		return "move_element"
	case MutUpdateText:
		return "update_text"
	case MutSetInlineStyle:
		return "set_inline_style"
	case MutDeleteInlineStyle:
		return "delete_inline_style"
	case MutSetAttribute:
		return "set_attribute"
	case MutRemoveNode:
		return "remove_node"
	case MutInsertElement:
		return "insert_element"
	case MutSetFrameBounds:
		return "set_frame_bounds"
	default:
		return "unknown"
	}
}

// FailureKind classifies why a Mutation was rejected, one per precondition
// class a Mutation's kind can violate.
type FailureKind int

const (
	FailNone FailureKind = iota
	InvalidMove
	InvalidTarget
	InvalidRemoval
	InvalidInsert
	InvalidFrame
)

func (k FailureKind) String() string {
	switch k {
	case InvalidMove:
		return "invalid_move"
	case InvalidTarget:
		return "invalid_target"
	case InvalidRemoval:
		return "invalid_removal"
	case InvalidInsert:
		return "invalid_insert"
	case InvalidFrame:
		return "invalid_frame"
	default:
		return "none"
	}
}

// Mutation is one semantic edit against a Document's render tree. Only the
// fields relevant to Kind are read; the rest are ignored. Node addresses
// the element the mutation targets (the moved/edited/removed node, or the
// frame-bearing component root for SetFrameBounds); Parent addresses the
// container InsertElement inserts into.
type Mutation struct {
	ID   string // client-supplied mutation id, echoed back in MutationResult
	Kind MutationKind
	Node vdom.SemanticID

	// MutMoveElement
	NewParent vdom.SemanticID
	Index     int

	// MutUpdateText
	Content string

	// MutSetInlineStyle, MutDeleteInlineStyle
	Property string

	// MutSetInlineStyle, MutSetAttribute
	Value string

	// MutSetAttribute
	Name string

	// MutInsertElement
	Parent  vdom.SemanticID
	Element string // a single element's well-formed .pc source fragment

	// MutSetFrameBounds
	Frame vdom.FrameBounds
}

// MutationError reports why a Mutation was rejected. The document's state
// (source text, version, CRDT state) is left byte-equal to before the call.
type MutationError struct {
	Kind   FailureKind
	Reason string
}

func (e *MutationError) Error() string {
	return e.Kind.String() + ": " + e.Reason
}

// MutationResult is the outcome of one ApplyMutation call: on success the
// new authoritative version; on failure the echoed id and the rejection
// cause, with no state change.
type MutationResult struct {
	Success    bool
	MutationID string
	Version    uint64
	Error      *MutationError
}
